package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/plugmate/plugmate/internal/core/domain"
)

const userAgent = "plugmate/1.0"

// HTTPSource serves repository files from a remote index. The endpoint is
// expected to expose GET /index.json (a JSON array of plugin ids) and
// GET /plugins/<name>.json (a repository file).
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a remote catalog source.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the source.
func (s *HTTPSource) Name() string { return s.baseURL }

// IsAvailable probes the index endpoint.
func (s *HTTPSource) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.baseURL+"/index.json", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListPluginIDs fetches the remote index.
func (s *HTTPSource) ListPluginIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.getJSON(ctx, s.baseURL+"/index.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchManifest fetches a plugin's repository file; nil on a 404.
func (s *HTTPSource) FetchManifest(ctx context.Context, name string) (*domain.RepositoryFile, error) {
	url := fmt.Sprintf("%s/plugins/%s.json", s.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("repository file request failed with status %d", resp.StatusCode)
	}

	var file domain.RepositoryFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode repository file: %w", err)
	}
	if file.Name == "" {
		file.Name = name
	}
	return &file, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
