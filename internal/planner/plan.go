// Package planner turns two resolved graphs into an ordered list of
// environment operations.
//
// The plan is deterministic: uninstalls come first, then installs and updates
// in topological order over the target graph, so no package is touched before
// the packages it depends on. The operation list is a plain return value
// scoped to one invocation; the planner keeps no state between calls.
package planner

import (
	"fmt"
	"sort"

	"github.com/Asgard118/ayon-dependencies-tool/internal/resolver"
)

// Operation type constants.
const (
	OpInstall   = "install"
	OpUpdate    = "update"
	OpUninstall = "uninstall"
)

// Operation is one directed action against the target environment.
type Operation struct {
	// Type is one of OpInstall, OpUpdate, OpUninstall.
	Type string

	// Name is the canonical package name.
	Name string

	// Version is the target version or direct-origin reference. Empty for
	// uninstalls.
	Version string

	// Previous is the version being replaced (updates) or removed
	// (uninstalls).
	Previous string

	// Direct marks operations on direct-origin packages, which always
	// require fresh materialization.
	Direct bool
}

func (o Operation) String() string {
	switch o.Type {
	case OpUpdate:
		return fmt.Sprintf("update %s %s -> %s", o.Name, o.Previous, o.Version)
	case OpUninstall:
		return fmt.Sprintf("uninstall %s %s", o.Name, o.Previous)
	default:
		return fmt.Sprintf("install %s %s", o.Name, o.Version)
	}
}

// Plan compares the previous and next graphs and returns the operations that
// move an environment from one to the other.
//
// Packages resolved identically in both graphs produce no operation, except
// direct-origin packages: their content identity cannot be read off the
// reference, so they are always reinstalled. Packages only in previous are
// uninstalled when synchronize is set, left untouched otherwise.
func Plan(previous, next resolver.Graph, synchronize bool) []Operation {
	var ops []Operation

	if synchronize {
		removed := make([]string, 0)
		for name := range previous {
			if _, kept := next[name]; !kept {
				removed = append(removed, name)
			}
		}
		sort.Strings(removed)
		for _, name := range removed {
			ops = append(ops, Operation{
				Type:     OpUninstall,
				Name:     name,
				Previous: render(previous[name]),
			})
		}
	}

	for _, name := range topoOrder(next) {
		res := next[name]
		prev, existed := previous[name]

		switch {
		case !existed:
			ops = append(ops, Operation{
				Type:    OpInstall,
				Name:    name,
				Version: render(res),
				Direct:  res.IsDirect(),
			})
		case !res.Equal(prev):
			ops = append(ops, Operation{
				Type:     OpUpdate,
				Name:     name,
				Version:  render(res),
				Previous: render(prev),
				Direct:   res.IsDirect(),
			})
		}
	}
	return ops
}

func render(res resolver.Resolution) string {
	if res.IsDirect() {
		return res.Direct.String()
	}
	return res.Version.String()
}

// topoOrder returns the graph's names ordered so every package follows its
// dependencies, with alphabetical tie-breaking for determinism. Names caught
// in a dependency cycle are appended alphabetically at the end.
func topoOrder(graph resolver.Graph) []string {
	pending := make(map[string]int, len(graph))
	dependents := make(map[string][]string, len(graph))
	for name, res := range graph {
		count := 0
		for _, dep := range res.Requires {
			if _, known := graph[dep]; known {
				count++
				dependents[dep] = append(dependents[dep], name)
			}
		}
		pending[name] = count
	}

	ready := make([]string, 0, len(graph))
	for name, count := range pending {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(graph))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		released := make([]string, 0)
		for _, dependent := range dependents[name] {
			pending[dependent]--
			if pending[dependent] == 0 {
				released = append(released, dependent)
			}
		}
		sort.Strings(released)
		ready = mergeSorted(ready, released)
	}

	if len(order) < len(graph) {
		var cyclic []string
		seen := make(map[string]bool, len(order))
		for _, name := range order {
			seen[name] = true
		}
		for name := range graph {
			if !seen[name] {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		order = append(order, cyclic...)
	}
	return order
}

func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
