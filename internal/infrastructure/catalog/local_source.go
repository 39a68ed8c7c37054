package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/plugmate/plugmate/internal/core/domain"
)

// LocalSource serves repository files from a directory holding one YAML file
// per plugin (<dir>/<name>.yml).
type LocalSource struct {
	fs   afero.Fs
	dir  string
	name string
}

// NewLocalSource creates a directory-backed catalog source.
func NewLocalSource(fs afero.Fs, dir string) *LocalSource {
	return &LocalSource{fs: fs, dir: dir, name: "local:" + dir}
}

// Name identifies the source.
func (s *LocalSource) Name() string { return s.name }

// IsAvailable reports whether the backing directory exists.
func (s *LocalSource) IsAvailable(ctx context.Context) bool {
	ok, err := afero.DirExists(s.fs, s.dir)
	return err == nil && ok
}

// ListPluginIDs lists the plugin names the directory carries.
func (s *LocalSource) ListPluginIDs(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list repository directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ext))
	}
	return ids, nil
}

// FetchManifest loads a plugin's repository file; nil when the directory
// does not carry the plugin.
func (s *LocalSource) FetchManifest(ctx context.Context, name string) (*domain.RepositoryFile, error) {
	var data []byte
	var err error
	for _, ext := range []string{".yml", ".yaml"} {
		data, err = afero.ReadFile(s.fs, filepath.Join(s.dir, name+ext))
		if err == nil {
			break
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read repository file for %q: %w", name, err)
	}

	var file domain.RepositoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse repository file for %q: %w", name, err)
	}
	if file.Name == "" {
		file.Name = name
	}
	return &file, nil
}
