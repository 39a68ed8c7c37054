package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseSpecifier_RecognizesEveryKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected VersionSpecifier
	}{
		{
			name:     "Latest_Lowercase",
			input:    "latest",
			expected: VersionSpecifier{Kind: SpecifierLatest},
		},
		{
			name:     "Latest_MixedCase",
			input:    "LaTeSt",
			expected: VersionSpecifier{Kind: SpecifierLatest},
		},
		{
			name:     "Sync_PlainTarget",
			input:    "sync:WorldEdit",
			expected: VersionSpecifier{Kind: SpecifierSync, Value: "WorldEdit"},
		},
		{
			name:     "Sync_TargetWithColonAndDash",
			input:    "sync:some-plugin:extra",
			expected: VersionSpecifier{Kind: SpecifierSync, Value: "some-plugin:extra"},
		},
		{
			name:     "Sync_UppercasePrefix",
			input:    "SYNC:Other",
			expected: VersionSpecifier{Kind: SpecifierSync, Value: "Other"},
		},
		{
			name:     "Tag",
			input:    "tag:stable",
			expected: VersionSpecifier{Kind: SpecifierTag, Value: "stable"},
		},
		{
			name:     "Pattern_InvalidRegexStillParses",
			input:    "pattern:[unclosed",
			expected: VersionSpecifier{Kind: SpecifierPattern, Value: "[unclosed"},
		},
		{
			name:     "Fixed_PlainVersion",
			input:    "1.2.3",
			expected: VersionSpecifier{Kind: SpecifierFixed, Value: "1.2.3"},
		},
		{
			name:     "Fixed_UnrecognizedPrefixIsSwallowed",
			input:    "channel:beta",
			expected: VersionSpecifier{Kind: SpecifierFixed, Value: "channel:beta"},
		},
		{
			name:     "Fixed_EmptyString",
			input:    "",
			expected: VersionSpecifier{Kind: SpecifierFixed, Value: ""},
		},
		{
			name:     "Fixed_LatestWithSuffixIsNotLatest",
			input:    "latest-beta",
			expected: VersionSpecifier{Kind: SpecifierFixed, Value: "latest-beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSpecifier(tt.input))
		})
	}
}

func TestSpecifier_String_RoundTrips(t *testing.T) {
	specs := []VersionSpecifier{
		{Kind: SpecifierLatest},
		{Kind: SpecifierFixed, Value: "7.2.15"},
		{Kind: SpecifierTag, Value: "stable"},
		{Kind: SpecifierPattern, Value: `^1\.2\..*`},
		{Kind: SpecifierSync, Value: "WorldEdit"},
	}
	for _, spec := range specs {
		assert.Equal(t, spec, ParseSpecifier(spec.String()), "round-trip for %v", spec)
	}
}

func TestIsSyncFormat(t *testing.T) {
	assert.True(t, IsSyncFormat("sync:Other"))
	assert.True(t, IsSyncFormat("Sync:Other"))
	assert.False(t, IsSyncFormat("tag:Other"))
	assert.False(t, IsSyncFormat("1.0.0"))
}

func TestExtractSyncTarget(t *testing.T) {
	target, ok := ExtractSyncTarget("sync:WorldEdit")
	require.True(t, ok)
	assert.Equal(t, "WorldEdit", target)

	_, ok = ExtractSyncTarget("latest")
	assert.False(t, ok)
}

// Property-based tests

// Parsing is total: no input string panics, and formatting what was parsed
// parses back to the same specifier.
func TestParseSpecifier_PropertyBased_TotalAndStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input")
		spec := ParseSpecifier(input)
		again := ParseSpecifier(spec.String())
		if spec != again {
			t.Fatalf("parse(format(%#v)) = %#v, want %#v", input, again, spec)
		}
	})
}

func TestParseSpecifier_PropertyBased_SyncTargetVerbatim(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := rapid.String().Draw(t, "target")
		spec := ParseSpecifier("sync:" + target)
		if spec.Kind != SpecifierSync || spec.Value != target {
			t.Fatalf("sync target mangled: %#v", spec)
		}
	})
}
