// Package metadata persists the per-plugin managed record as one JSON file
// per plugin under the state directory.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/plugmate/plugmate/internal/core/domain"
)

// Store is a filesystem-backed metadata store. Writes are atomic: records are
// written to a temp file and renamed into place.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

func (s *Store) recordPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get loads a plugin's record. A missing file is a NotFound error, not an IO
// failure. Names that could escape the state directory are rejected before
// any path is built.
func (s *Store) Get(name string) (*domain.Record, error) {
	if err := domain.ValidatePluginName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NotFoundError(name)
		}
		return nil, fmt.Errorf("failed to read metadata for %q: %w", name, err)
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %q: %w", name, err)
	}
	return &record, nil
}

// Put persists a record, replacing any previous version atomically.
func (s *Store) Put(record *domain.Record) error {
	if err := domain.ValidatePluginName(record.Name); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %q: %w", record.Name, err)
	}

	path := s.recordPath(record.Name)
	tempPath := path + ".tmp"
	if err := afero.WriteFile(s.fs, tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata for %q: %w", record.Name, err)
	}
	if err := s.fs.Rename(tempPath, path); err != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("failed to save metadata for %q: %w", record.Name, err)
	}
	return nil
}

// Delete removes a plugin's record. Deleting a record that does not exist is
// a NotFound error.
func (s *Store) Delete(name string) error {
	if err := domain.ValidatePluginName(name); err != nil {
		return err
	}
	path := s.recordPath(name)
	if exists, err := afero.Exists(s.fs, path); err != nil {
		return fmt.Errorf("failed to check metadata for %q: %w", name, err)
	} else if !exists {
		return domain.NotFoundError(name)
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete metadata for %q: %w", name, err)
	}
	return nil
}

// All loads every persisted record, sorted by the store's directory listing.
func (s *Store) All() ([]*domain.Record, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list metadata directory: %w", err)
	}

	var records []*domain.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Lock marks a plugin's record as locked. Locking twice fails with
// AlreadyLocked and leaves the record otherwise unchanged.
func (s *Store) Lock(name string) error {
	record, err := s.Get(name)
	if err != nil {
		return err
	}
	if record.Locked {
		return fmt.Errorf("plugin %q: %w", name, domain.ErrAlreadyLocked)
	}
	record.Locked = true
	return s.Put(record)
}

// Unlock clears the lock flag. Unlocking a never-locked plugin fails with
// NotLocked and leaves the record otherwise unchanged.
func (s *Store) Unlock(name string) error {
	record, err := s.Get(name)
	if err != nil {
		return err
	}
	if !record.Locked {
		return fmt.Errorf("plugin %q: %w", name, domain.ErrNotLocked)
	}
	record.Locked = false
	return s.Put(record)
}
