package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/plugmate/plugmate/internal/core/ports"
)

// GitHubClient downloads plugin artifacts from GitHub release assets. The
// repository id is "<owner>/<repo>"; versions are release tags.
type GitHubClient struct {
	apiBase    string
	httpClient *http.Client
}

// NewGitHubClient creates a GitHub releases adapter.
func NewGitHubClient(timeout time.Duration) *GitHubClient {
	return NewGitHubClientWithBase("https://api.github.com", timeout)
}

// NewGitHubClientWithBase creates an adapter against a custom API base URL.
func NewGitHubClientWithBase(apiBase string, timeout time.Duration) *GitHubClient {
	return &GitHubClient{
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Type identifies the adapter in candidate sources.
func (c *GitHubClient) Type() string { return "github" }

type githubAsset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

// LatestVersion returns the newest release's tag and first asset.
func (c *GitHubClient) LatestVersion(ctx context.Context, id string) (ports.VersionInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, id)
	release, err := c.fetchRelease(ctx, url)
	if err != nil {
		return ports.VersionInfo{}, err
	}
	return releaseInfo(release)
}

// VersionByName returns the release with the given tag.
func (c *GitHubClient) VersionByName(ctx context.Context, id, version string) (ports.VersionInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.apiBase, id, version)
	release, err := c.fetchRelease(ctx, url)
	if err != nil {
		return ports.VersionInfo{}, err
	}
	return releaseInfo(release)
}

// DownloadByVersion streams the matching release asset to w. When a
// fileNamePattern is given, the first asset whose name matches the regex is
// chosen; otherwise the first asset wins.
func (c *GitHubClient) DownloadByVersion(ctx context.Context, id, version, fileNamePattern string, w io.Writer) error {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.apiBase, id, version)
	release, err := c.fetchRelease(ctx, url)
	if err != nil {
		return err
	}

	asset, err := pickAsset(release.Assets, fileNamePattern)
	if err != nil {
		return fmt.Errorf("release %s of %s: %w", version, id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

func (c *GitHubClient) fetchRelease(ctx context.Context, url string) (*githubRelease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("release lookup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	return &release, nil
}

func releaseInfo(release *githubRelease) (ports.VersionInfo, error) {
	info := ports.VersionInfo{Version: release.TagName}
	if len(release.Assets) > 0 {
		info.DownloadID = strconv.FormatInt(release.Assets[0].ID, 10)
		info.URL = release.Assets[0].URL
	}
	return info, nil
}

func pickAsset(assets []githubAsset, pattern string) (githubAsset, error) {
	if len(assets) == 0 {
		return githubAsset{}, fmt.Errorf("release has no assets")
	}
	if pattern == "" {
		return assets[0], nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return githubAsset{}, fmt.Errorf("invalid file name pattern %q: %w", pattern, err)
	}
	for _, asset := range assets {
		if re.MatchString(asset.Name) {
			return asset, nil
		}
	}
	return githubAsset{}, fmt.Errorf("no asset matches pattern %q", pattern)
}
