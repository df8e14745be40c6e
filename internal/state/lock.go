// Package state persists resolved dependency graphs between invocations.
//
// A lock is the starting point for the next resolution of the same bundle and
// platform: reuse mode prefers locked versions, which keeps rebuilt packages
// stable. Locks are written only after a build succeeds.
package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/resolver"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// LockedPackage is one resolved package in serialized form.
type LockedPackage struct {
	// Name is the canonical package name.
	Name string `json:"name"`

	// Version is the concrete version. Empty for direct-origin packages.
	Version string `json:"version,omitempty"`

	// Direct carries a direct-origin pin.
	Direct *manifest.Constraint `json:"direct,omitempty"`

	// Requires lists the package's direct dependencies.
	Requires []string `json:"requires,omitempty"`
}

// LockState is the persisted outcome of one successful bundle build.
type LockState struct {
	// Bundle is the bundle name the lock belongs to.
	Bundle string `json:"bundle"`

	// Platform is the target platform the resolution was computed for.
	Platform string `json:"platform"`

	// InstallerVersion records the baseline the graph was resolved against.
	InstallerVersion string `json:"installerVersion,omitempty"`

	// CreatedAt is when the lock was written.
	CreatedAt time.Time `json:"createdAt"`

	// Packages is the resolved graph, sorted by name.
	Packages []LockedPackage `json:"packages"`
}

// FromGraph converts a resolved graph into its serialized form.
func FromGraph(graph resolver.Graph) []LockedPackage {
	out := make([]LockedPackage, 0, len(graph))
	for _, name := range graph.Names() {
		res := graph[name]
		locked := LockedPackage{
			Name:     res.Name,
			Direct:   res.Direct,
			Requires: res.Requires,
		}
		if !res.IsDirect() {
			locked.Version = res.Version.String()
		}
		out = append(out, locked)
	}
	return out
}

// Graph rebuilds the resolved graph from a lock.
func (s *LockState) Graph() (resolver.Graph, error) {
	out := make(resolver.Graph, len(s.Packages))
	for _, locked := range s.Packages {
		name := manifest.CanonicalName(locked.Name)
		res := resolver.Resolution{
			Name:     name,
			Direct:   locked.Direct,
			Requires: locked.Requires,
		}
		if locked.Direct == nil {
			v, err := version.Parse(locked.Version)
			if err != nil {
				return nil, fmt.Errorf("lock entry %q: %w", locked.Name, err)
			}
			res.Version = v
		}
		out[name] = res
	}
	return out, nil
}

// Sort orders the packages by name, the canonical on-disk order.
func (s *LockState) Sort() {
	sort.Slice(s.Packages, func(i, j int) bool {
		return s.Packages[i].Name < s.Packages[j].Name
	})
}
