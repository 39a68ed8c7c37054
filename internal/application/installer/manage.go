package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/plugmate/plugmate/internal/application/analyzer"
	"github.com/plugmate/plugmate/internal/core/domain"
)

// Manager covers the management operations around the batch: declaring new
// plugins and removing plugins from management.
type Manager struct {
	service  *Service
	analyzer *analyzer.Analyzer
}

// NewManager wires the manager over the orchestrator and the dependency
// analyzer.
func NewManager(service *Service, a *analyzer.Analyzer) *Manager {
	return &Manager{service: service, analyzer: a}
}

// Add declares a plugin in the manifest. The plugin must exist in a
// configured catalog; an entry that already exists is an error. With
// withDependencies set, the repository file's dependency list is declared
// too (at "latest"), skipping names already present.
func (m *Manager) Add(ctx context.Context, name, specText string, withDependencies bool) error {
	if err := domain.ValidatePluginName(name); err != nil {
		return err
	}
	manifest, err := m.service.manifest.Load()
	if err != nil {
		return err
	}
	if _, exists := manifest.Get(name); exists {
		return fmt.Errorf("plugin %q: %w", name, domain.ErrAlreadyExists)
	}

	repoFile, err := m.service.repo.RepositoryFile(ctx, name)
	if err != nil {
		return err
	}

	if specText == "" {
		specText = "latest"
	}
	if err := manifest.Set(name, specText); err != nil {
		return err
	}
	if withDependencies {
		for _, dep := range repoFile.Dependencies {
			if _, exists := manifest.Get(dep); exists {
				continue
			}
			if err := manifest.Set(dep, "latest"); err != nil {
				return err
			}
		}
	}
	return m.service.manifest.Save(manifest)
}

// Remove takes a plugin out of management: the metadata record and manifest
// entry are deleted; the binary is deleted too unless keepFile is set.
// Removal is refused while other installed plugins depend on the plugin.
func (m *Manager) Remove(ctx context.Context, name string, keepFile bool) error {
	record, err := m.service.store.Get(name)
	if err != nil {
		return err
	}

	dependents, err := m.analyzer.ReverseDependencies(ctx, name)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		return fmt.Errorf("plugin %q is required by %s: %w", name, strings.Join(dependents, ", "), domain.ErrHasDependents)
	}

	if err := m.service.store.Delete(name); err != nil {
		return err
	}

	manifest, err := m.service.manifest.Load()
	if err != nil {
		return err
	}
	if manifest.Remove(name) {
		if err := m.service.manifest.Save(manifest); err != nil {
			return err
		}
	}

	if !keepFile && record.Download.FileName != "" {
		path := filepath.Join(m.service.pluginsDir, record.Download.FileName)
		if exists, _ := afero.Exists(m.service.fs, path); exists {
			if err := m.service.fs.Remove(path); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrRemoveFailed, err)
			}
		}
		m.analyzer.Invalidate()
	}
	return nil
}
