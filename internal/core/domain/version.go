package domain

import "strings"

// VersionDetail carries a catalog-reported version string together with its
// normalized comparison key. Raw is preserved verbatim for display; two
// versions are the same iff their normalized forms match.
type VersionDetail struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// VersionFromRaw builds a VersionDetail from a catalog-reported string.
func VersionFromRaw(raw string) VersionDetail {
	return VersionDetail{Raw: raw, Normalized: NormalizeVersion(raw)}
}

// Equal compares two versions by their normalized form.
func (v VersionDetail) Equal(other VersionDetail) bool {
	return v.Normalized == other.Normalized
}

// IsZero reports whether the detail carries no version at all.
func (v VersionDetail) IsZero() bool {
	return v.Raw == ""
}

// NormalizeVersion strips a single leading 'v' or 'V' and lower-cases the
// rest. Versions are opaque tokens; no ordering semantics are implied.
func NormalizeVersion(raw string) string {
	s := raw
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		s = s[1:]
	}
	return strings.ToLower(s)
}
