package version

import (
	"sort"
	"strings"
)

type boundKind int8

const (
	boundFinite boundKind = iota
	boundNegInf
	boundPosInf
)

// bound is one endpoint of an interval. Infinite bounds have no version.
type bound struct {
	v         Version
	inclusive bool
	kind      boundKind
}

func negInf() bound { return bound{kind: boundNegInf} }
func posInf() bound { return bound{kind: boundPosInf} }

func lowerBound(v Version, inclusive bool) bound {
	return bound{v: v, inclusive: inclusive, kind: boundFinite}
}

func upperBound(v Version, inclusive bool) bound {
	return bound{v: v, inclusive: inclusive, kind: boundFinite}
}

// compareLower orders two bounds interpreted as interval lower ends.
// An inclusive bound starts earlier than an exclusive one at the same version.
func compareLower(a, b bound) int {
	switch {
	case a.kind == boundNegInf && b.kind == boundNegInf:
		return 0
	case a.kind == boundNegInf:
		return -1
	case b.kind == boundNegInf:
		return 1
	case a.kind == boundPosInf && b.kind == boundPosInf:
		return 0
	case a.kind == boundPosInf:
		return 1
	case b.kind == boundPosInf:
		return -1
	}
	if cmp := Compare(a.v, b.v); cmp != 0 {
		return cmp
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return -1
	default:
		return 1
	}
}

// compareUpper orders two bounds interpreted as interval upper ends.
// An inclusive bound extends further than an exclusive one at the same version.
func compareUpper(a, b bound) int {
	switch {
	case a.kind == boundPosInf && b.kind == boundPosInf:
		return 0
	case a.kind == boundPosInf:
		return 1
	case b.kind == boundPosInf:
		return -1
	case a.kind == boundNegInf && b.kind == boundNegInf:
		return 0
	case a.kind == boundNegInf:
		return -1
	case b.kind == boundNegInf:
		return 1
	}
	if cmp := Compare(a.v, b.v); cmp != 0 {
		return cmp
	}
	switch {
	case a.inclusive == b.inclusive:
		return 0
	case a.inclusive:
		return 1
	default:
		return -1
	}
}

// upperBeforeLower reports whether an upper bound ends strictly before a
// lower bound starts, i.e. there is a gap between the two.
func upperBeforeLower(upper, lower bound) bool {
	switch {
	case upper.kind == boundNegInf:
		return lower.kind != boundNegInf
	case lower.kind == boundPosInf:
		return upper.kind != boundPosInf
	case upper.kind == boundPosInf, lower.kind == boundNegInf:
		return false
	}
	if cmp := Compare(upper.v, lower.v); cmp != 0 {
		return cmp < 0
	}
	// At equal versions only two exclusive endpoints leave a version out:
	// [1.0, 1.5) and [1.5, 2.0) are adjacent, (_, 1.5) and (1.5, _) are not.
	return !upper.inclusive && !lower.inclusive
}

// interval is a contiguous span of versions between two bounds.
type interval struct {
	lower, upper bound
}

func (iv interval) isEmpty() bool {
	if iv.lower.kind == boundPosInf || iv.upper.kind == boundNegInf {
		return true
	}
	if iv.lower.kind == boundNegInf || iv.upper.kind == boundPosInf {
		return false
	}
	cmp := Compare(iv.lower.v, iv.upper.v)
	switch {
	case cmp < 0:
		return false
	case cmp > 0:
		return true
	default:
		return !iv.lower.inclusive || !iv.upper.inclusive
	}
}

func (iv interval) contains(v Version) bool {
	if iv.lower.kind != boundNegInf {
		cmp := Compare(v, iv.lower.v)
		if cmp < 0 || (cmp == 0 && !iv.lower.inclusive) {
			return false
		}
	}
	if iv.upper.kind != boundPosInf {
		cmp := Compare(v, iv.upper.v)
		if cmp > 0 || (cmp == 0 && !iv.upper.inclusive) {
			return false
		}
	}
	return true
}

// touches reports whether two intervals overlap or are adjacent, meaning
// they merge into one interval without a gap.
func (iv interval) touches(other interval) bool {
	return !upperBeforeLower(iv.upper, other.lower) &&
		!upperBeforeLower(other.upper, iv.lower)
}

func (iv interval) merge(other interval) interval {
	out := iv
	if compareLower(other.lower, out.lower) < 0 {
		out.lower = other.lower
	}
	if compareUpper(other.upper, out.upper) > 0 {
		out.upper = other.upper
	}
	return out
}

func (iv interval) intersect(other interval) (interval, bool) {
	out := iv
	if compareLower(other.lower, out.lower) > 0 {
		out.lower = other.lower
	}
	if compareUpper(other.upper, out.upper) < 0 {
		out.upper = other.upper
	}
	if out.isEmpty() {
		return interval{}, false
	}
	return out, true
}

// Range is a normalized set of disjoint, sorted version intervals.
// The zero value is the empty range (matches nothing).
type Range struct {
	intervals []interval
}

// Any returns the range matching every version.
func Any() Range {
	return Range{intervals: []interval{{lower: negInf(), upper: posInf()}}}
}

// None returns the empty range.
func None() Range {
	return Range{}
}

// Exact returns the range matching exactly v.
func Exact(v Version) Range {
	return Range{intervals: []interval{{
		lower: lowerBound(v, true),
		upper: upperBound(v, true),
	}}}
}

// AtLeast returns the range ">=v".
func AtLeast(v Version) Range {
	return Range{intervals: []interval{{lower: lowerBound(v, true), upper: posInf()}}}
}

// Before returns the range "<v".
func Before(v Version) Range {
	return Range{intervals: []interval{{lower: negInf(), upper: upperBound(v, false)}}}
}

// Between returns the half-open range ">=low, <high".
func Between(low, high Version) Range {
	return normalize([]interval{{
		lower: lowerBound(low, true),
		upper: upperBound(high, false),
	}})
}

// normalize sorts intervals, drops empty ones and merges touching neighbors.
func normalize(intervals []interval) Range {
	kept := intervals[:0]
	for _, iv := range intervals {
		if !iv.isEmpty() {
			kept = append(kept, iv)
		}
	}
	if len(kept) == 0 {
		return Range{}
	}
	sort.Slice(kept, func(i, j int) bool {
		return compareLower(kept[i].lower, kept[j].lower) < 0
	})

	merged := []interval{kept[0]}
	for _, iv := range kept[1:] {
		last := &merged[len(merged)-1]
		if last.touches(iv) {
			*last = last.merge(iv)
		} else {
			merged = append(merged, iv)
		}
	}
	return Range{intervals: merged}
}

// IsEmpty reports whether the range matches no version.
func (r Range) IsEmpty() bool {
	return len(r.intervals) == 0
}

// IsAny reports whether the range matches every version.
func (r Range) IsAny() bool {
	return len(r.intervals) == 1 &&
		r.intervals[0].lower.kind == boundNegInf &&
		r.intervals[0].upper.kind == boundPosInf
}

// Contains reports whether v falls within the range.
func (r Range) Contains(v Version) bool {
	for _, iv := range r.intervals {
		if iv.contains(v) {
			return true
		}
	}
	return false
}

// Intersect returns the range of versions contained in both r and other.
func (r Range) Intersect(other Range) Range {
	var out []interval
	for _, a := range r.intervals {
		for _, b := range other.intervals {
			if iv, ok := a.intersect(b); ok {
				out = append(out, iv)
			}
		}
	}
	return normalize(out)
}

// Union returns the range of versions contained in either r or other.
func (r Range) Union(other Range) Range {
	combined := make([]interval, 0, len(r.intervals)+len(other.intervals))
	combined = append(combined, r.intervals...)
	combined = append(combined, other.intervals...)
	return normalize(combined)
}

// Complement returns the range of versions not contained in r.
func (r Range) Complement() Range {
	if r.IsEmpty() {
		return Any()
	}

	var out []interval
	cursor := negInf()
	for _, iv := range r.intervals {
		gap := interval{lower: cursor, upper: complementUpper(iv.lower)}
		if !gap.isEmpty() {
			out = append(out, gap)
		}
		cursor = complementLower(iv.upper)
	}
	tail := interval{lower: cursor, upper: posInf()}
	if !tail.isEmpty() {
		out = append(out, tail)
	}
	return normalize(out)
}

// complementUpper flips an interval's lower bound into the upper bound of
// the gap preceding it.
func complementUpper(lower bound) bound {
	switch lower.kind {
	case boundNegInf:
		return negInf()
	case boundPosInf:
		return posInf()
	default:
		return bound{v: lower.v, inclusive: !lower.inclusive, kind: boundFinite}
	}
}

// complementLower flips an interval's upper bound into the lower bound of
// the gap following it.
func complementLower(upper bound) bound {
	switch upper.kind {
	case boundPosInf:
		return posInf()
	case boundNegInf:
		return negInf()
	default:
		return bound{v: upper.v, inclusive: !upper.inclusive, kind: boundFinite}
	}
}

// Equal reports whether two ranges contain exactly the same versions.
func (r Range) Equal(other Range) bool {
	if len(r.intervals) != len(other.intervals) {
		return false
	}
	for i, a := range r.intervals {
		b := other.intervals[i]
		if compareLower(a.lower, b.lower) != 0 || compareUpper(a.upper, b.upper) != 0 {
			return false
		}
	}
	return true
}

// String renders the range in parseable form, e.g. ">=2.28.0, <3.0.0".
func (r Range) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	parts := make([]string, 0, len(r.intervals))
	for _, iv := range r.intervals {
		parts = append(parts, iv.String())
	}
	return strings.Join(parts, " || ")
}

func (iv interval) String() string {
	lowerInf := iv.lower.kind == boundNegInf
	upperInf := iv.upper.kind == boundPosInf

	switch {
	case lowerInf && upperInf:
		return "*"
	case lowerInf:
		op := "<"
		if iv.upper.inclusive {
			op = "<="
		}
		return op + iv.upper.v.String()
	case upperInf:
		op := ">"
		if iv.lower.inclusive {
			op = ">="
		}
		return op + iv.lower.v.String()
	}

	if iv.lower.inclusive && iv.upper.inclusive && iv.lower.v.Equal(iv.upper.v) {
		return "==" + iv.lower.v.String()
	}

	lowerOp := ">"
	if iv.lower.inclusive {
		lowerOp = ">="
	}
	upperOp := "<"
	if iv.upper.inclusive {
		upperOp = "<="
	}
	return lowerOp + iv.lower.v.String() + ", " + upperOp + iv.upper.v.String()
}
