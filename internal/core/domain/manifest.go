package domain

import (
	"fmt"
	"strings"
)

// ManifestEntry is one declared plugin: its name and the raw specifier text,
// or the unmanaged marker.
type ManifestEntry struct {
	Name      string
	Specifier string
}

// Unmanaged reports whether the entry opts the plugin out of management.
func (e ManifestEntry) Unmanaged() bool {
	return IsUnmanagedMarker(e.Specifier)
}

// Manifest is the declared plugin set. Entry order carries no semantics but
// is preserved on rewrite so that repeated runs stay diff-friendly.
type Manifest struct {
	Entries []ManifestEntry
}

// ValidatePluginName rejects blank plugin identifiers and identifiers that
// could escape a per-plugin file path.
func ValidatePluginName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("plugin name must not be blank")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("plugin name %q must not contain path separators", name)
	}
	return nil
}

// Get returns the specifier text declared for a plugin.
func (m *Manifest) Get(name string) (string, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e.Specifier, true
		}
	}
	return "", false
}

// Set updates an existing entry in place or appends a new one, preserving
// the order of all other entries.
func (m *Manifest) Set(name, specifier string) error {
	if err := ValidatePluginName(name); err != nil {
		return err
	}
	for i, e := range m.Entries {
		if e.Name == name {
			m.Entries[i].Specifier = specifier
			return nil
		}
	}
	m.Entries = append(m.Entries, ManifestEntry{Name: name, Specifier: specifier})
	return nil
}

// Remove drops an entry; it reports whether the entry existed.
func (m *Manifest) Remove(name string) bool {
	for i, e := range m.Entries {
		if e.Name == name {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Managed returns the entries that are under management, in manifest order.
func (m *Manifest) Managed() []ManifestEntry {
	out := make([]ManifestEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if !e.Unmanaged() {
			out = append(out, e)
		}
	}
	return out
}
