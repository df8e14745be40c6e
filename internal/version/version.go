// Package version provides semantic version values and range arithmetic.
//
// Version is a thin wrapper around github.com/Masterminds/semver/v3. Range is
// a normalized set of version intervals supporting intersection, union and
// complement, which is what constraint merging and conflict detection are
// built on.
package version

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
type Version struct {
	v *mm.Version
}

// Parse parses a semantic version. Partial versions such as "2.28" are
// accepted and padded with zeros.
func Parse(raw string) (Version, error) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

// MustParse parses a version and panics on failure. Test helper.
func MustParse(raw string) Version {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether the version is the zero value (never parsed).
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Compare returns -1, 0 or 1 comparing a to b. A zero Version sorts lowest.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// Equal reports whether two versions compare equal.
func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.v.Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.v.Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.v.Patch() }

// next returns a fresh version with the given components, used by the range
// parser to compute exclusive upper bounds for caret/tilde/wildcard forms.
func next(major, minor, patch uint64) Version {
	return Version{v: mm.New(major, minor, patch, "", "")}
}

// MaxSatisfying returns the highest candidate contained in r.
func MaxSatisfying(r Range, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !r.Contains(candidate) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
