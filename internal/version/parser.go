package version

import (
	"fmt"
	"strings"
)

// ParseRange parses a version range expression into a Range.
//
// Supported syntax, matching what addon manifests actually carry:
//   - comparison operators: >=, >, <=, <, ==, !=, =
//   - caret requirements: ^1.2.3 (compatible up to the next breaking version)
//   - tilde requirements: ~1.2.3 (compatible within the same minor series)
//   - wildcards: 3.9.*, 1.x, *
//   - bare versions as exact pins: "2.28.1"
//   - comma-separated conjunctions: ">=2.28, <3.0"
//   - double-pipe disjunctions: "<1.5 || >=2.0"
func ParseRange(expr string) (Range, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" {
		return Any(), nil
	}

	result := None()
	for _, orPart := range strings.Split(expr, "||") {
		orPart = strings.TrimSpace(orPart)
		if orPart == "" {
			return Range{}, fmt.Errorf("parse range %q: empty alternative", expr)
		}

		current := Any()
		for _, token := range splitConjunction(orPart) {
			r, err := parseToken(token)
			if err != nil {
				return Range{}, fmt.Errorf("parse range %q: %w", expr, err)
			}
			current = current.Intersect(r)
			if current.IsEmpty() {
				break
			}
		}
		result = result.Union(current)
	}
	return result, nil
}

// MustParseRange parses a range expression and panics on failure. Test helper.
func MustParseRange(expr string) Range {
	r, err := ParseRange(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// splitConjunction splits "    >=2.28,   <3.0" or ">=2.28 <3.0" into tokens.
func splitConjunction(part string) []string {
	var tokens []string
	for _, byComma := range strings.Split(part, ",") {
		byComma = strings.TrimSpace(byComma)
		if byComma == "" {
			continue
		}
		// Space-separated conjunctions only count when each piece starts
		// with an operator; "1.2 3" is malformed, not two constraints.
		fields := strings.Fields(byComma)
		if len(fields) > 1 && allHaveOperator(fields) {
			tokens = append(tokens, fields...)
			continue
		}
		tokens = append(tokens, byComma)
	}
	return tokens
}

func allHaveOperator(fields []string) bool {
	for _, f := range fields {
		switch f[0] {
		case '>', '<', '=', '!', '^', '~':
		default:
			return false
		}
	}
	return true
}

func parseToken(token string) (Range, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Range{}, fmt.Errorf("empty constraint")
	}

	switch {
	case strings.HasPrefix(token, "^"):
		return parseCaret(strings.TrimPrefix(token, "^"))
	case strings.HasPrefix(token, "~"):
		return parseTilde(strings.TrimPrefix(token, "~"))
	case strings.HasPrefix(token, ">="):
		v, err := Parse(strings.TrimSpace(token[2:]))
		if err != nil {
			return Range{}, err
		}
		return AtLeast(v), nil
	case strings.HasPrefix(token, ">"):
		v, err := Parse(strings.TrimSpace(token[1:]))
		if err != nil {
			return Range{}, err
		}
		return Range{intervals: []interval{{lower: lowerBound(v, false), upper: posInf()}}}, nil
	case strings.HasPrefix(token, "<="):
		v, err := Parse(strings.TrimSpace(token[2:]))
		if err != nil {
			return Range{}, err
		}
		return Range{intervals: []interval{{lower: negInf(), upper: upperBound(v, true)}}}, nil
	case strings.HasPrefix(token, "<"):
		v, err := Parse(strings.TrimSpace(token[1:]))
		if err != nil {
			return Range{}, err
		}
		return Before(v), nil
	case strings.HasPrefix(token, "!="):
		v, err := Parse(strings.TrimSpace(token[2:]))
		if err != nil {
			return Range{}, err
		}
		return Exact(v).Complement(), nil
	case strings.HasPrefix(token, "=="):
		return parseExact(strings.TrimSpace(token[2:]))
	case strings.HasPrefix(token, "="):
		return parseExact(strings.TrimSpace(token[1:]))
	default:
		return parseExact(token)
	}
}

// parseExact handles bare versions and wildcard forms like "3.9.*".
func parseExact(raw string) (Range, error) {
	if raw == "" {
		return Range{}, fmt.Errorf("missing version")
	}
	if hasWildcard(raw) {
		return parseWildcard(raw)
	}
	v, err := Parse(raw)
	if err != nil {
		return Range{}, err
	}
	return Exact(v), nil
}

func hasWildcard(raw string) bool {
	for _, segment := range strings.Split(raw, ".") {
		if segment == "*" || segment == "x" || segment == "X" {
			return true
		}
	}
	return false
}

// parseWildcard turns "3.9.*" into ">=3.9.0, <3.10.0" and "3.*" into
// ">=3.0.0, <4.0.0".
func parseWildcard(raw string) (Range, error) {
	segments := strings.Split(raw, ".")
	fixed := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "*" || segment == "x" || segment == "X" {
			break
		}
		fixed = append(fixed, segment)
	}
	if len(fixed) == 0 {
		return Any(), nil
	}

	low, err := Parse(strings.Join(fixed, "."))
	if err != nil {
		return Range{}, err
	}

	var high Version
	switch len(fixed) {
	case 1:
		high = next(low.Major()+1, 0, 0)
	default:
		high = next(low.Major(), low.Minor()+1, 0)
	}
	return Between(low, high), nil
}

// parseCaret implements caret requirements: the upper bound bumps the
// leftmost non-zero component, or the last specified one when all are zero.
func parseCaret(raw string) (Range, error) {
	raw = strings.TrimSpace(raw)
	low, err := Parse(raw)
	if err != nil {
		return Range{}, err
	}
	segments := len(strings.Split(raw, "."))

	var high Version
	switch {
	case low.Major() > 0:
		high = next(low.Major()+1, 0, 0)
	case segments == 1:
		high = next(1, 0, 0)
	case low.Minor() > 0 || segments == 2:
		high = next(0, low.Minor()+1, 0)
	default:
		high = next(0, 0, low.Patch()+1)
	}
	return Between(low, high), nil
}

// parseTilde implements tilde requirements: minor-level compatibility when a
// minor component is specified, major-level otherwise.
func parseTilde(raw string) (Range, error) {
	raw = strings.TrimSpace(raw)
	low, err := Parse(raw)
	if err != nil {
		return Range{}, err
	}
	segments := len(strings.Split(raw, "."))

	var high Version
	if segments >= 2 {
		high = next(low.Major(), low.Minor()+1, 0)
	} else {
		high = next(low.Major()+1, 0, 0)
	}
	return Between(low, high), nil
}
