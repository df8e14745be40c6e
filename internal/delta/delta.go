// Package delta computes the minimal addition-only package set: what a
// dependency package must ship on top of what the installer baseline already
// provides.
//
// The calculator resolves twice over the same metadata source: once for the
// full constraint set (baseline plus every addon) and once for the baseline
// alone. Packages the baseline already resolves to the identical version are
// excluded; everything else ships in the delta.
package delta

import (
	"context"
	"fmt"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/resolver"
)

// Result is the outcome of one delta computation.
type Result struct {
	// Full is the resolution of baseline plus all addons.
	Full resolver.Graph

	// Base is the resolution of the baseline alone.
	Base resolver.Graph

	// Packages pins every main dependency the baseline does not already
	// satisfy, as exact versions or direct-origin references.
	Packages manifest.DependencySet

	// Runtime pins the platform runtime dependencies the baseline does
	// not cover.
	Runtime manifest.DependencySet
}

// Calculator runs the two resolution phases and reconciles the graphs.
type Calculator struct {
	Resolver resolver.Resolver

	// Platform selects which runtime-conditional constraints apply.
	Platform string
}

// Run resolves merged (baseline plus addons) and base (baseline alone) and
// returns the addition-only delta. The base phase reuses the full phase's
// graph as its lock so a package needed by both sides lands on the same
// version, which is what makes the exclusion in Diff sound.
func (c *Calculator) Run(ctx context.Context, merged, base *manifest.Manifest, opts resolver.Options) (*Result, error) {
	// On a name declared in both sections the runtime constraint wins; it
	// is the platform-specific refinement of the generic one.
	runtimeSet := merged.Runtime.For(c.Platform)
	fullSet := union(runtimeSet, merged.Main)

	full, err := c.Resolver.Resolve(ctx, fullSet, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve full set: %w", err)
	}

	// Extras are addition-side only: the baseline never provides them, so
	// resolving them into the base graph would diff them out of the delta.
	baseOpts := opts
	baseOpts.Lock = full
	baseOpts.Update = false
	baseOpts.UpdateScope = nil
	baseOpts.Extras = nil
	baseOpts.DeclaredExtras = nil
	baseSet := union(base.Runtime.For(c.Platform), base.Main)

	baseGraph, err := c.Resolver.Resolve(ctx, baseSet, baseOpts)
	if err != nil {
		return nil, fmt.Errorf("resolve baseline set: %w", err)
	}

	diff := Diff(full, baseGraph)

	result := &Result{
		Full:     full,
		Base:     baseGraph,
		Packages: make(manifest.DependencySet),
		Runtime:  make(manifest.DependencySet),
	}

	additionRequired := requiredByAddition(full, merged, base, c.Platform)
	for name, pin := range diff {
		if _, isRuntime := runtimeSet[name]; isRuntime {
			// Runtime entries the baseline already resolves and no addon
			// needs are baseline-covered; re-declaring them would
			// duplicate libraries the installer ships.
			if _, inBase := baseGraph[name]; inBase && !additionRequired[name] {
				continue
			}
			result.Runtime[name] = pin
			continue
		}
		result.Packages[name] = pin
	}
	return result, nil
}

// Diff pins every package in full that base does not satisfy with the
// identical resolution. Direct-origin resolutions never compare equal, so
// they are always part of the delta.
func Diff(full, base resolver.Graph) manifest.DependencySet {
	out := make(manifest.DependencySet)
	for name, res := range full {
		if baseline, ok := base[name]; ok && res.Equal(baseline) {
			continue
		}
		if res.IsDirect() {
			out[name] = *res.Direct
			continue
		}
		out[name] = manifest.RangeConstraint("==" + res.Version.String())
	}
	return out
}

// requiredByAddition returns the transitive closure, over the full graph, of
// every name the addons declare and the baseline does not.
func requiredByAddition(full resolver.Graph, merged, base *manifest.Manifest, platform string) map[string]bool {
	baseDeclared := union(base.Main, base.Runtime.For(platform))

	var roots []string
	for name := range union(merged.Main, merged.Runtime.For(platform)) {
		if _, ok := baseDeclared[name]; !ok {
			roots = append(roots, name)
		}
	}

	reached := make(map[string]bool)
	for len(roots) > 0 {
		name := roots[len(roots)-1]
		roots = roots[:len(roots)-1]
		if reached[name] {
			continue
		}
		reached[name] = true
		roots = append(roots, full[name].Requires...)
	}
	return reached
}

func union(a, b manifest.DependencySet) manifest.DependencySet {
	out := a.Clone()
	if out == nil {
		out = make(manifest.DependencySet, len(b))
	}
	for name, c := range b {
		if _, ok := out[name]; !ok {
			out[name] = c
		}
	}
	return out
}
