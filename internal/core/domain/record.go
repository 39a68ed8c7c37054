package domain

import "time"

// History actions recorded against a managed plugin.
const (
	ActionInstall = "install"
	ActionUpdate  = "update"
)

// RepositoryRef binds a managed plugin to the catalog it was installed from.
type RepositoryRef struct {
	CatalogType string `json:"catalog_type"`
	CatalogID   string `json:"catalog_id"`
}

// DownloadRef identifies the artifact that was last placed on disk.
type DownloadRef struct {
	DownloadID string `json:"download_id"`
	FileName   string `json:"file_name"`
	URL        string `json:"url,omitempty"`
}

// HistoryEntry is one append-only install/update event.
type HistoryEntry struct {
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installed_at"`
	Action      string    `json:"action"`
}

// Record is the persisted per-plugin metadata record. It is created on first
// successful install, mutated on every update/lock/unlock and only deleted by
// an explicit remove-from-management operation. History is never truncated or
// reordered.
type Record struct {
	Name          string        `json:"name"`
	Repository    RepositoryRef `json:"repository"`
	Current       VersionDetail `json:"current_version"`
	Latest        VersionDetail `json:"latest_version"`
	LastCheckedAt time.Time     `json:"last_checked_at"`
	Download      DownloadRef   `json:"download"`
	Locked        bool          `json:"locked"`
	History       []HistoryEntry `json:"history"`
}

// NewRecord synthesizes a fresh record for a first install, with a
// one-entry history.
func NewRecord(name string, repo RepositoryRef, version VersionDetail, installedAt time.Time) *Record {
	return &Record{
		Name:          name,
		Repository:    repo,
		Current:       version,
		Latest:        version,
		LastCheckedAt: installedAt,
		History: []HistoryEntry{{
			Version:     version.Raw,
			InstalledAt: installedAt,
			Action:      ActionInstall,
		}},
	}
}

// AppendHistory records one successful install or update.
func (r *Record) AppendHistory(version string, at time.Time, action string) {
	r.History = append(r.History, HistoryEntry{
		Version:     version,
		InstalledAt: at,
		Action:      action,
	})
}
