package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies what a Constraint pins a package to.
type Kind int

const (
	// KindRange is a version range expression, e.g. ">=2.28, <3.0" or "^1.2".
	KindRange Kind = iota

	// KindURL pins a package to a direct download URL.
	KindURL

	// KindGit pins a package to a VCS location with an optional revision.
	KindGit

	// KindPath pins a package to a local filesystem path.
	KindPath
)

// String returns the kind name used in error messages and JSON.
func (k Kind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindURL:
		return "url"
	case KindGit:
		return "git"
	case KindPath:
		return "path"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Constraint is a single dependency requirement: either a version range or a
// direct-origin pin (URL, VCS location or local path).
//
// Direct-origin pins are opaque to range arithmetic. They never intersect
// with ranges; merging applies a precedence rule instead (the addition side
// wins). Exactly one of the payload fields is populated for the given Kind.
type Constraint struct {
	Kind Kind `json:"kind"`

	// Range is the raw range expression (KindRange only).
	Range string `json:"range,omitempty"`

	// URL is the direct download location (KindURL only).
	URL string `json:"url,omitempty"`

	// Git is the VCS location and Rev the optional revision (KindGit only).
	Git string `json:"git,omitempty"`
	Rev string `json:"rev,omitempty"`

	// Path is the local filesystem location (KindPath only).
	Path string `json:"path,omitempty"`
}

// RangeConstraint returns a Constraint for a version range expression.
func RangeConstraint(expr string) Constraint {
	return Constraint{Kind: KindRange, Range: strings.TrimSpace(expr)}
}

// URLConstraint returns a direct-origin pin to a download URL.
func URLConstraint(url string) Constraint {
	return Constraint{Kind: KindURL, URL: url}
}

// GitConstraint returns a direct-origin pin to a VCS location.
func GitConstraint(repo, rev string) Constraint {
	return Constraint{Kind: KindGit, Git: repo, Rev: rev}
}

// PathConstraint returns a direct-origin pin to a local path.
func PathConstraint(path string) Constraint {
	return Constraint{Kind: KindPath, Path: path}
}

// IsDirect reports whether the constraint is a direct-origin pin rather than
// a version range.
func (c Constraint) IsDirect() bool {
	return c.Kind != KindRange
}

// IsZero reports whether the constraint is empty.
func (c Constraint) IsZero() bool {
	return c == Constraint{}
}

// Equal reports whether two constraints pin the same thing.
func (c Constraint) Equal(other Constraint) bool {
	return c == other
}

// String returns a human-readable form used in conflict reports.
func (c Constraint) String() string {
	switch c.Kind {
	case KindURL:
		return c.URL
	case KindGit:
		if c.Rev != "" {
			return fmt.Sprintf("git+%s@%s", c.Git, c.Rev)
		}
		return "git+" + c.Git
	case KindPath:
		return c.Path
	default:
		if c.Range == "" {
			return "*"
		}
		return c.Range
	}
}

// ParseConstraintString interprets a raw manifest value as a Constraint.
//
// Strings containing a URL scheme or a VCS marker become direct-origin pins;
// a "git+" location may carry an "@revision" suffix. Anything else is treated
// as a version range expression.
func ParseConstraintString(raw string) Constraint {
	value := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(value, "git+"):
		location := strings.TrimPrefix(value, "git+")
		rev := ""
		if at := strings.LastIndex(location, "@"); at > 0 {
			rev = location[at+1:]
			location = location[:at]
		}
		return GitConstraint(location, rev)
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return URLConstraint(value)
	case strings.HasPrefix(value, "file://"):
		return PathConstraint(strings.TrimPrefix(value, "file://"))
	default:
		return RangeConstraint(value)
	}
}

// UnmarshalJSON accepts both the shorthand string form ("^2.28",
// "git+https://...@rev") and the structured object form
// ({"url": ...} / {"git": ..., "rev": ...} / {"path": ...} / {"version": ...}).
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*c = ParseConstraintString(raw)
		return nil
	}

	var obj struct {
		Version string `json:"version"`
		URL     string `json:"url"`
		Git     string `json:"git"`
		Rev     string `json:"rev"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("constraint must be a string or an object: %w", err)
	}

	switch {
	case obj.URL != "":
		*c = URLConstraint(obj.URL)
	case obj.Git != "":
		*c = GitConstraint(obj.Git, obj.Rev)
	case obj.Path != "":
		*c = PathConstraint(obj.Path)
	case obj.Version != "":
		*c = RangeConstraint(obj.Version)
	default:
		return fmt.Errorf("constraint object needs one of version, url, git or path")
	}
	return nil
}

// MarshalJSON writes ranges as plain strings and pins as structured objects,
// mirroring the accepted input forms.
func (c Constraint) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindRange:
		return json.Marshal(c.Range)
	case KindURL:
		return json.Marshal(map[string]string{"url": c.URL})
	case KindGit:
		obj := map[string]string{"git": c.Git}
		if c.Rev != "" {
			obj["rev"] = c.Rev
		}
		return json.Marshal(obj)
	case KindPath:
		return json.Marshal(map[string]string{"path": c.Path})
	default:
		return nil, fmt.Errorf("cannot marshal constraint of kind %s", c.Kind)
	}
}
