// Package catalog implements the repository abstraction: an ordered list of
// plugin catalog sources plus the per-catalog download adapters.
package catalog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// Repository resolves plugin ids against a prioritized list of sources.
type Repository struct {
	sources []ports.Source
	logger  *slog.Logger
}

// NewRepository creates a repository over sources in declared priority order.
func NewRepository(logger *slog.Logger, sources ...ports.Source) *Repository {
	return &Repository{sources: sources, logger: logger}
}

// Sources returns the configured sources in priority order.
func (r *Repository) Sources() []ports.Source {
	return r.sources
}

// AvailablePlugins returns the union of plugin ids across all currently
// available sources, deduplicated by name. The result is sorted for stable
// output; no source priority is implied by the order.
func (r *Repository) AvailablePlugins(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for _, source := range r.sources {
		if !source.IsAvailable(ctx) {
			continue
		}
		ids, err := source.ListPluginIDs(ctx)
		if err != nil {
			r.logger.Warn("failed to list plugins from source", "source", source.Name(), "error", err)
			continue
		}
		for _, id := range ids {
			seen[id] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RepositoryFile returns the first source's manifest for the plugin, in
// declared priority order. A source error counts as "no result from this
// source"; the search continues. No manifest anywhere is a
// RepositoryNotFound error.
func (r *Repository) RepositoryFile(ctx context.Context, name string) (*domain.RepositoryFile, error) {
	for _, source := range r.sources {
		if !source.IsAvailable(ctx) {
			continue
		}
		file, err := source.FetchManifest(ctx, name)
		if err != nil {
			r.logger.Warn("source lookup failed, trying next", "source", source.Name(), "plugin", name, "error", err)
			continue
		}
		if file != nil {
			return file, nil
		}
	}
	return nil, domain.RepositoryNotFoundError(name)
}
