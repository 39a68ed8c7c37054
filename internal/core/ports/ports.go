// Package ports declares the contracts between the resolution engine and its
// external collaborators: catalog sources, download adapters, persistence and
// the installed-binary reader. Infrastructure provides the implementations;
// the application layer only sees these interfaces.
package ports

import (
	"context"
	"io"

	"github.com/plugmate/plugmate/internal/core/domain"
)

// Source is one catalog in the ordered repository list.
type Source interface {
	// Name identifies the source in logs and the catalogs listing.
	Name() string
	// IsAvailable reports whether the source can currently serve lookups.
	IsAvailable(ctx context.Context) bool
	// ListPluginIDs returns every plugin id the source knows about.
	ListPluginIDs(ctx context.Context) ([]string, error)
	// FetchManifest returns the plugin's repository file, or nil when the
	// source does not carry the plugin.
	FetchManifest(ctx context.Context, name string) (*domain.RepositoryFile, error)
}

// RepositoryLookup resolves a plugin id against the prioritized source list.
type RepositoryLookup interface {
	RepositoryFile(ctx context.Context, name string) (*domain.RepositoryFile, error)
}

// VersionInfo is a catalog adapter's answer for one concrete version.
type VersionInfo struct {
	DownloadID string
	Version    string
	URL        string
}

// CatalogClient is the per-catalog download adapter contract. Adapters must
// surface failures as errors and never silently return an empty file.
type CatalogClient interface {
	// Type is the catalog type this client serves ("github", "modrinth", ...).
	Type() string
	// LatestVersion returns the newest published version for a repository id.
	LatestVersion(ctx context.Context, id string) (VersionInfo, error)
	// VersionByName returns a specific named version.
	VersionByName(ctx context.Context, id, version string) (VersionInfo, error)
	// DownloadByVersion streams the artifact for a version to w.
	// fileNamePattern optionally narrows the asset choice.
	DownloadByVersion(ctx context.Context, id, version, fileNamePattern string, w io.Writer) error
}

// ClientRegistry maps a candidate source's catalog type to its adapter.
type ClientRegistry interface {
	// ClientFor returns an UnsupportedRepository error for unknown types.
	ClientFor(catalogType string) (CatalogClient, error)
}

// MetadataStore persists one record per managed plugin.
type MetadataStore interface {
	// Get returns a NotFound error when no record exists for the plugin.
	Get(name string) (*domain.Record, error)
	Put(record *domain.Record) error
	Delete(name string) error
	All() ([]*domain.Record, error)
	// Lock returns AlreadyLocked when the plugin is already locked.
	Lock(name string) error
	// Unlock returns NotLocked when the plugin is not locked.
	Unlock(name string) error
}

// ManifestStore reads and rewrites the declared manifest, preserving entry
// order across round-trips.
type ManifestStore interface {
	Load() (*domain.Manifest, error)
	Save(manifest *domain.Manifest) error
}

// InstalledBinary is one plugin binary found in the server's plugin
// directory, paired with the descriptor read from inside it.
type InstalledBinary struct {
	Path       string
	Descriptor domain.Descriptor
}

// InstalledScanner enumerates the currently installed plugin binaries.
// Binaries without a recognizable packaged descriptor are omitted.
type InstalledScanner interface {
	Scan(ctx context.Context) ([]InstalledBinary, error)
}
