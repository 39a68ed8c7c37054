package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/plugmate/plugmate/internal/core/ports"
)

// ModrinthClient downloads plugin artifacts from the Modrinth API. The
// repository id is the project slug or id; versions are version numbers.
type ModrinthClient struct {
	apiBase    string
	httpClient *http.Client
}

// NewModrinthClient creates a Modrinth adapter.
func NewModrinthClient(timeout time.Duration) *ModrinthClient {
	return NewModrinthClientWithBase("https://api.modrinth.com/v2", timeout)
}

// NewModrinthClientWithBase creates an adapter against a custom API base URL.
func NewModrinthClientWithBase(apiBase string, timeout time.Duration) *ModrinthClient {
	return &ModrinthClient{
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Type identifies the adapter in candidate sources.
func (c *ModrinthClient) Type() string { return "modrinth" }

type modrinthFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Primary  bool   `json:"primary"`
}

type modrinthVersion struct {
	ID            string         `json:"id"`
	VersionNumber string         `json:"version_number"`
	Files         []modrinthFile `json:"files"`
}

// LatestVersion returns the most recently published version of the project.
func (c *ModrinthClient) LatestVersion(ctx context.Context, id string) (ports.VersionInfo, error) {
	versions, err := c.fetchVersions(ctx, id)
	if err != nil {
		return ports.VersionInfo{}, err
	}
	if len(versions) == 0 {
		return ports.VersionInfo{}, fmt.Errorf("project %s has no published versions", id)
	}
	// The API lists newest first.
	return versionInfo(versions[0]), nil
}

// VersionByName returns the version whose version number matches.
func (c *ModrinthClient) VersionByName(ctx context.Context, id, version string) (ports.VersionInfo, error) {
	versions, err := c.fetchVersions(ctx, id)
	if err != nil {
		return ports.VersionInfo{}, err
	}
	for _, v := range versions {
		if v.VersionNumber == version {
			return versionInfo(v), nil
		}
	}
	return ports.VersionInfo{}, fmt.Errorf("project %s has no version %q", id, version)
}

// DownloadByVersion streams the version's primary file to w. A
// fileNamePattern narrows the file choice by regex when given.
func (c *ModrinthClient) DownloadByVersion(ctx context.Context, id, version, fileNamePattern string, w io.Writer) error {
	versions, err := c.fetchVersions(ctx, id)
	if err != nil {
		return err
	}

	var target *modrinthVersion
	for i, v := range versions {
		if v.VersionNumber == version {
			target = &versions[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("project %s has no version %q", id, version)
	}

	file, err := pickModrinthFile(target.Files, fileNamePattern)
	if err != nil {
		return fmt.Errorf("version %s of %s: %w", version, id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
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

func (c *ModrinthClient) fetchVersions(ctx context.Context, id string) ([]modrinthVersion, error) {
	url := fmt.Sprintf("%s/project/%s/version", c.apiBase, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("version lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("version lookup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var versions []modrinthVersion
	if err := json.NewDecoder(resp.Body).Decode(&versions); err != nil {
		return nil, fmt.Errorf("failed to decode versions: %w", err)
	}
	return versions, nil
}

func versionInfo(v modrinthVersion) ports.VersionInfo {
	info := ports.VersionInfo{DownloadID: v.ID, Version: v.VersionNumber}
	for _, f := range v.Files {
		if f.Primary {
			info.URL = f.URL
			break
		}
	}
	if info.URL == "" && len(v.Files) > 0 {
		info.URL = v.Files[0].URL
	}
	return info
}

func pickModrinthFile(files []modrinthFile, pattern string) (modrinthFile, error) {
	if len(files) == 0 {
		return modrinthFile{}, fmt.Errorf("version has no files")
	}
	if pattern == "" {
		for _, f := range files {
			if f.Primary {
				return f, nil
			}
		}
		return files[0], nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return modrinthFile{}, fmt.Errorf("invalid file name pattern %q: %w", pattern, err)
	}
	for _, f := range files {
		if re.MatchString(f.Filename) {
			return f, nil
		}
	}
	return modrinthFile{}, fmt.Errorf("no file matches pattern %q", pattern)
}
