package resolver

import (
	"fmt"
	"sort"
	"strings"
)

// Requirement is one constraint placed on a package, with the origin that
// declared it: a manifest name for root requirements, "name@version" for
// requirements introduced transitively.
type Requirement struct {
	Origin string
	Spec   string
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s (from %s)", r.Spec, r.Origin)
}

// UnsatisfiableError means no version assignment satisfies the transitive
// constraint graph. Pairs holds the minimal conflicting requirement pairs
// found for the failing package, so the report names the actual clash rather
// than just "no solution".
type UnsatisfiableError struct {
	Name         string
	Requirements []Requirement
	Pairs        [][2]Requirement
}

func (e *UnsatisfiableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no version of %q satisfies all requirements", e.Name)
	if len(e.Pairs) > 0 {
		parts := make([]string, 0, len(e.Pairs))
		for _, pair := range e.Pairs {
			parts = append(parts, fmt.Sprintf("%s vs %s", pair[0], pair[1]))
		}
		sort.Strings(parts)
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	} else if len(e.Requirements) > 0 {
		parts := make([]string, 0, len(e.Requirements))
		for _, req := range e.Requirements {
			parts = append(parts, req.String())
		}
		sort.Strings(parts)
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	}
	return b.String()
}

// ExtraNotFoundError means a requested optional dependency group is not
// declared by the root manifest. Checked before the search starts.
type ExtraNotFoundError struct {
	Extra string
	Known []string
}

func (e *ExtraNotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("extra %q not found: the manifest declares no extras", e.Extra)
	}
	known := append([]string(nil), e.Known...)
	sort.Strings(known)
	return fmt.Sprintf("extra %q not found, available: %s", e.Extra, strings.Join(known, ", "))
}

// TimeoutError means the search hit its step budget or was cancelled before
// completing. It is deliberately distinct from UnsatisfiableError: the
// constraint set may well have a solution that was not reached.
type TimeoutError struct {
	Steps int
	Err   error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolution cancelled after %d steps: %v", e.Steps, e.Err)
	}
	return fmt.Sprintf("resolution exceeded the step budget (%d steps)", e.Steps)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// MetadataError wraps a metadata source failure for one package.
type MetadataError struct {
	Name string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata for %q: %v", e.Name, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }
