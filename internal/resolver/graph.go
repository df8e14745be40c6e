package resolver

import (
	"sort"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// Resolution is the concrete outcome for one package: a registry version, or
// a direct-origin reference.
type Resolution struct {
	Name string

	// Version is the chosen concrete version. Zero for direct-origin pins.
	Version version.Version

	// Direct is set when the package is pinned to a URL, VCS location or
	// local path instead of a registry version.
	Direct *manifest.Constraint

	// Requires lists the canonical names of the package's direct
	// dependencies at the chosen version.
	Requires []string
}

// IsDirect reports whether the resolution points at a direct origin.
func (r Resolution) IsDirect() bool {
	return r.Direct != nil
}

// Equal reports whether two resolutions pin the same thing. Direct-origin
// resolutions are never equal: their content identity cannot be established
// from the reference alone.
func (r Resolution) Equal(other Resolution) bool {
	if r.IsDirect() || other.IsDirect() {
		return false
	}
	return r.Name == other.Name && r.Version.Equal(other.Version)
}

// Graph maps canonical package names to their resolutions. It is produced
// once per resolution phase and never mutated afterwards.
type Graph map[string]Resolution

// Names returns the resolved package names in sorted order.
func (g Graph) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the graph.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for name, r := range g {
		out[name] = r
	}
	return out
}
