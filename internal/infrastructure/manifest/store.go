// Package manifest reads and rewrites the declared plugin manifest
// (plugins.yml). The document is a single mapping of plugin name to
// specifier text; entry order is preserved on rewrite so that repeated
// runs stay diff-friendly.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/plugmate/plugmate/internal/core/domain"
)

// Store persists the declared manifest to a YAML file.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a manifest store for the given file path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

type manifestDoc struct {
	Plugins yaml.Node `yaml:"plugins"`
}

// Load reads the manifest. A missing file is an empty manifest.
func (s *Store) Load() (*domain.Manifest, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc manifestDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m := &domain.Manifest{}
	if doc.Plugins.Kind == 0 {
		return m, nil
	}
	if doc.Plugins.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse manifest: plugins must be a mapping")
	}
	// Mapping node content alternates key, value; document order is the
	// node order.
	for i := 0; i+1 < len(doc.Plugins.Content); i += 2 {
		name := doc.Plugins.Content[i].Value
		spec := doc.Plugins.Content[i+1].Value
		if err := domain.ValidatePluginName(name); err != nil {
			return nil, fmt.Errorf("invalid manifest entry: %w", err)
		}
		m.Entries = append(m.Entries, domain.ManifestEntry{Name: name, Specifier: spec})
	}
	return m, nil
}

// Save rewrites the manifest in entry order, atomically.
func (s *Store) Save(m *domain.Manifest) error {
	plugins := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range m.Entries {
		plugins.Content = append(plugins.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Specifier},
		)
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "plugins"},
			plugins,
		},
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	tempPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := s.fs.Rename(tempPath, s.path); err != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}
