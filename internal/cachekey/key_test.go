package cachekey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValid(t *testing.T) {
	key, err := Normalize("zlib", "1.3.0", "ABCdef0123")
	require.NoError(t, err)

	assert.Equal(t, "zlib", key.Name)
	assert.Equal(t, "1.3.0", key.Version)
	assert.Equal(t, "abcdef0123", key.SHA, "sha must be lower-cased")
	assert.Equal(t, "zlib/1.3.0/abcdef0123", key.Path())
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize("boost-headers", "1.84.0_rc1", "F00dBabe")
	require.NoError(t, err)

	second, err := Normalize(first.Name, first.Version, first.SHA)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeRejectsMalformedSegments(t *testing.T) {
	tests := []struct {
		name    string
		segment [3]string
	}{
		{"empty name", [3]string{"", "1.0", "abc"}},
		{"empty version", [3]string{"zlib", "", "abc"}},
		{"empty sha", [3]string{"zlib", "1.0", ""}},
		{"path separator", [3]string{"zlib/evil", "1.0", "abc"}},
		{"backslash", [3]string{`zlib\evil`, "1.0", "abc"}},
		{"traversal in version", [3]string{"zlib", "..", "abc"}},
		{"dot name", [3]string{".", "1.0", "abc"}},
		{"embedded traversal", [3]string{"zlib", "1.0", "../../etc/passwd"}},
		{"space", [3]string{"z lib", "1.0", "abc"}},
		{"percent encoding", [3]string{"zlib", "1.0", "ab%2fcd"}},
		{"null byte", [3]string{"zlib", "1.0", "ab\x00cd"}},
		{"over length", [3]string{strings.Repeat("a", 256), "1.0", "abc"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.segment[0], tc.segment[1], tc.segment[2])
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestNormalizeAcceptsBoundaryLength(t *testing.T) {
	_, err := Normalize(strings.Repeat("a", 255), "1.0", "abc")
	assert.NoError(t, err)
}
