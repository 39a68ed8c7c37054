package catalog

import (
	"fmt"

	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// Registry maps candidate source types to their download adapters.
type Registry struct {
	clients map[string]ports.CatalogClient
}

// NewRegistry builds a registry over the given adapters, keyed by their
// reported type.
func NewRegistry(clients ...ports.CatalogClient) *Registry {
	byType := make(map[string]ports.CatalogClient, len(clients))
	for _, client := range clients {
		byType[client.Type()] = client
	}
	return &Registry{clients: byType}
}

// ClientFor returns the adapter for a catalog type, or an
// UnsupportedRepository error for an unrecognized one.
func (r *Registry) ClientFor(catalogType string) (ports.CatalogClient, error) {
	client, ok := r.clients[catalogType]
	if !ok {
		return nil, fmt.Errorf("catalog type %q: %w", catalogType, domain.ErrUnsupportedRepository)
	}
	return client, nil
}
