package manifest

import "strings"

// CanonicalName normalizes a package name for comparison.
//
// Names are lowercased and runs of "-", "_" and "." collapse into a single
// dash, so "Pillow", "pillow" and "PIL_low" style spellings of the same
// package always land on the same key. Every map in this module is keyed by
// canonical names.
func CanonicalName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case '-', '_', '.':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			b.WriteRune(r)
			lastDash = false
		}
	}

	return strings.Trim(b.String(), "-")
}
