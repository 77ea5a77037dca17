// Package cachekey validates and canonicalizes package identifiers into
// safe storage keys.
package cachekey

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidKey is returned when a package identifier segment is malformed.
var ErrInvalidKey = errors.New("invalid cache key")

// segmentPattern is the character whitelist for a single key segment.
// Path separators and traversal sequences cannot be expressed within it.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,255}$`)

// Key identifies a cached artifact by package name, version and content hash.
type Key struct {
	Name    string
	Version string
	SHA     string
}

// Normalize validates the (name, version, sha) triple and returns the
// canonical key. The sha segment is lower-cased so lookups are
// case-insensitive on the hash. Validation happens before any storage I/O;
// failures wrap ErrInvalidKey.
func Normalize(name, version, sha string) (Key, error) {
	sha = strings.ToLower(sha)

	for _, seg := range []struct {
		field string
		value string
	}{
		{"name", name},
		{"version", version},
		{"sha", sha},
	} {
		if err := validateSegment(seg.field, seg.value); err != nil {
			return Key{}, err
		}
	}

	return Key{Name: name, Version: version, SHA: sha}, nil
}

func validateSegment(field, value string) error {
	if value == "." || value == ".." {
		return fmt.Errorf("%w: %s must not be a relative path element", ErrInvalidKey, field)
	}
	if !segmentPattern.MatchString(value) {
		return fmt.Errorf("%w: %s %q must match %s", ErrInvalidKey, field, value, segmentPattern)
	}
	return nil
}

// Path returns the canonical storage path name/version/sha. The join is
// injective over valid triples since segments cannot contain "/".
func (k Key) Path() string {
	return k.Name + "/" + k.Version + "/" + k.SHA
}

// String implements fmt.Stringer for log output.
func (k Key) String() string {
	return k.Path()
}
