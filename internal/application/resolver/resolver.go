// Package resolver computes the concrete version string each declared plugin
// should be installed at, honoring sync chains across the declared set.
package resolver

import (
	"errors"
	"fmt"

	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/graph"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// Resolver turns declared specifiers into concrete version strings.
type Resolver struct {
	store ports.MetadataStore
}

// New creates a resolver over the metadata store.
func New(store ports.MetadataStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve computes the version string for one plugin.
//
//   - Sync: the target's entry in resolvedSoFar. When the target has not been
//     processed (which topological ordering should prevent, and which happens
//     when the target's own install failed), the literal specifier text is
//     returned unresolved.
//   - Latest: the persisted record's current raw version when one exists, as
//     the basis for the no-change comparison; the orchestrator fetches the
//     true latest from the network when a transaction actually runs.
//   - Fixed, Tag, Pattern: the literal text. Tag and Pattern matching against
//     a catalog's version list is a known gap, not implemented behavior.
func (r *Resolver) Resolve(name, specText string, resolvedSoFar map[string]string) (string, error) {
	spec := domain.ParseSpecifier(specText)
	switch spec.Kind {
	case domain.SpecifierSync:
		if version, ok := resolvedSoFar[spec.Value]; ok {
			return version, nil
		}
		return specText, nil
	case domain.SpecifierLatest:
		record, err := r.store.Get(name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return spec.String(), nil
			}
			return "", fmt.Errorf("%w for %q: %v", domain.ErrVersionResolution, name, err)
		}
		return record.Current.Raw, nil
	default:
		return specText, nil
	}
}

// Service resolves a single declared plugin end to end, walking the manifest
// in topological order so that sync chains are honored.
type Service struct {
	manifest ports.ManifestStore
	resolver *Resolver
}

// NewService creates the resolve-one-plugin service exposed to the CLI.
func NewService(manifest ports.ManifestStore, resolver *Resolver) *Service {
	return &Service{manifest: manifest, resolver: resolver}
}

// ResolveVersion returns the concrete version the declared manifest pins the
// plugin to. Unmanaged plugins and plugins absent from the manifest are
// errors.
func (s *Service) ResolveVersion(name string) (string, error) {
	m, err := s.manifest.Load()
	if err != nil {
		return "", err
	}

	specText, ok := m.Get(name)
	if !ok {
		return "", domain.NotFoundError(name)
	}
	if domain.IsUnmanagedMarker(specText) {
		return "", fmt.Errorf("plugin %q is unmanaged: %w", name, domain.ErrVersionResolution)
	}

	nodes := SyncNodes(m)
	if err := graph.Validate(nodes); err != nil {
		return "", err
	}
	order, err := graph.Order(nodes)
	if err != nil {
		return "", err
	}

	resolved := make(map[string]string, len(order))
	for _, pluginName := range order {
		spec, _ := m.Get(pluginName)
		if domain.IsUnmanagedMarker(spec) {
			continue
		}
		version, err := s.resolver.Resolve(pluginName, spec, resolved)
		if err != nil {
			return "", err
		}
		resolved[pluginName] = version
		if pluginName == name {
			return version, nil
		}
	}
	return "", domain.NotFoundError(name)
}

// SyncNodes projects the manifest onto sync-graph nodes in manifest order.
// Unmanaged entries are included so that a sync target declared unmanaged
// still counts as present; they are skipped at resolution time, so their
// dependents fall back to the literal specifier text.
func SyncNodes(m *domain.Manifest) []graph.Node {
	entries := m.Entries
	nodes := make([]graph.Node, 0, len(entries))
	for _, e := range entries {
		node := graph.Node{ID: e.Name}
		if target, ok := domain.ExtractSyncTarget(e.Specifier); ok {
			node.After = target
			node.HasEdge = true
		}
		nodes = append(nodes, node)
	}
	return nodes
}
