package domain

import "strings"

// SpecifierKind enumerates the supported version specifier variants
type SpecifierKind string

const (
	SpecifierFixed   SpecifierKind = "fixed"
	SpecifierLatest  SpecifierKind = "latest"
	SpecifierTag     SpecifierKind = "tag"
	SpecifierPattern SpecifierKind = "pattern"
	SpecifierSync    SpecifierKind = "sync"
)

// UnmanagedMarker is the manifest entry value for plugins the engine must
// never touch. It is a manifest state, not a specifier kind.
const UnmanagedMarker = "unmanaged"

const (
	syncPrefix    = "sync:"
	tagPrefix     = "tag:"
	patternPrefix = "pattern:"
)

// VersionSpecifier is the parsed form of a declared version rule.
// Value holds the version literal for Fixed, the tag name for Tag, the regex
// source for Pattern and the target plugin name for Sync; it is empty for
// Latest.
type VersionSpecifier struct {
	Kind  SpecifierKind
	Value string
}

// ParseSpecifier parses a declared specifier string. It is total: an input
// that matches no known prefix is a Fixed version literal, never an error.
// Plugin version strings are free-form and must not be rejected here.
func ParseSpecifier(text string) VersionSpecifier {
	if strings.EqualFold(text, "latest") {
		return VersionSpecifier{Kind: SpecifierLatest}
	}
	if rest, ok := cutPrefixFold(text, syncPrefix); ok {
		return VersionSpecifier{Kind: SpecifierSync, Value: rest}
	}
	if rest, ok := cutPrefixFold(text, tagPrefix); ok {
		return VersionSpecifier{Kind: SpecifierTag, Value: rest}
	}
	if rest, ok := cutPrefixFold(text, patternPrefix); ok {
		// Regex syntax is validated at use time, not here.
		return VersionSpecifier{Kind: SpecifierPattern, Value: rest}
	}
	return VersionSpecifier{Kind: SpecifierFixed, Value: text}
}

// String renders the canonical textual form of the specifier.
func (s VersionSpecifier) String() string {
	switch s.Kind {
	case SpecifierLatest:
		return "latest"
	case SpecifierSync:
		return syncPrefix + s.Value
	case SpecifierTag:
		return tagPrefix + s.Value
	case SpecifierPattern:
		return patternPrefix + s.Value
	default:
		return s.Value
	}
}

// IsSyncFormat reports whether the raw specifier text declares a sync rule.
func IsSyncFormat(text string) bool {
	_, ok := cutPrefixFold(text, syncPrefix)
	return ok
}

// ExtractSyncTarget returns the plugin name a sync specifier points at.
// The remainder after the prefix is taken verbatim; it may itself contain
// colons or dashes.
func ExtractSyncTarget(text string) (string, bool) {
	return cutPrefixFold(text, syncPrefix)
}

// IsUnmanagedMarker reports whether a manifest entry value opts the plugin
// out of management.
func IsUnmanagedMarker(text string) bool {
	return strings.EqualFold(text, UnmanagedMarker)
}

// cutPrefixFold is strings.CutPrefix with a case-insensitive prefix match.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
