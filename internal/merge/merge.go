// Package merge combines the dependency declarations of many manifests into
// a single dependency set.
//
// Range constraints merge by intersection; an empty intersection is a
// ConflictError naming both sides. Direct-origin pins never intersect with
// ranges: a pin on the addition side replaces whatever the base declared, and
// a base pin survives any addition range. The configured runtime interpreter
// key bypasses intersection entirely and resolves to the externally supplied
// target version.
package merge

import (
	"fmt"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// ConflictError reports an empty intersection between two manifests'
// constraints for one dependency.
type ConflictError struct {
	Name           string
	Base           manifest.Constraint
	Addition       manifest.Constraint
	BaseOrigin     string
	AdditionOrigin string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dependency conflict for %q: %s (from %s) is incompatible with %s (from %s)",
		e.Name, e.Base, e.BaseOrigin, e.Addition, e.AdditionOrigin)
}

// Options configures how dependency sets are merged.
type Options struct {
	// InterpreterKey is the canonical name of the runtime interpreter
	// dependency, e.g. "python". When set together with InterpreterTarget,
	// that dependency is pinned to the target instead of intersected.
	InterpreterKey string

	// InterpreterTarget is the range expression of the externally chosen
	// interpreter version, typically taken from the installer manifest.
	InterpreterTarget string
}

func (o Options) isInterpreter(name string) bool {
	return o.InterpreterKey != "" && o.InterpreterTarget != "" &&
		name == manifest.CanonicalName(o.InterpreterKey)
}

// Sets merges addition into base and returns a fresh set. Base names absent
// from addition are carried over unchanged; names only in addition are
// adopted; names in both are merged pairwise.
func Sets(base manifest.DependencySet, baseOrigin string, addition manifest.DependencySet, additionOrigin string, opts Options) (manifest.DependencySet, error) {
	out := base.Clone()
	if out == nil {
		out = make(manifest.DependencySet, len(addition))
	}
	for name, add := range addition {
		existing, ok := out[name]
		if !ok {
			if opts.isInterpreter(name) {
				out[name] = manifest.RangeConstraint(opts.InterpreterTarget)
			} else {
				out[name] = add
			}
			continue
		}
		merged, err := pair(name, existing, add, baseOrigin, additionOrigin, opts)
		if err != nil {
			return nil, err
		}
		out[name] = merged
	}
	if opts.isInterpreter(manifest.CanonicalName(opts.InterpreterKey)) {
		key := manifest.CanonicalName(opts.InterpreterKey)
		if _, ok := out[key]; ok {
			out[key] = manifest.RangeConstraint(opts.InterpreterTarget)
		}
	}
	return out, nil
}

// pair merges two constraints declared for the same dependency.
func pair(name string, base, add manifest.Constraint, baseOrigin, additionOrigin string, opts Options) (manifest.Constraint, error) {
	if opts.isInterpreter(name) {
		return manifest.RangeConstraint(opts.InterpreterTarget), nil
	}

	// Pins are opaque to range arithmetic. An addition pin overrides
	// anything; a base pin survives an addition range.
	if add.IsDirect() {
		return add, nil
	}
	if base.IsDirect() {
		return base, nil
	}

	baseRange, err := version.ParseRange(base.Range)
	if err != nil {
		return manifest.Constraint{}, fmt.Errorf("dependency %q from %s: %w", name, baseOrigin, err)
	}
	addRange, err := version.ParseRange(add.Range)
	if err != nil {
		return manifest.Constraint{}, fmt.Errorf("dependency %q from %s: %w", name, additionOrigin, err)
	}

	merged := baseRange.Intersect(addRange)
	if merged.IsEmpty() {
		return manifest.Constraint{}, &ConflictError{
			Name:           name,
			Base:           base,
			Addition:       add,
			BaseOrigin:     baseOrigin,
			AdditionOrigin: additionOrigin,
		}
	}
	return manifest.RangeConstraint(merged.String()), nil
}

// Runtime merges platform-conditional dependency sets. Each platform key is
// merged independently; a side without an entry for some platform is
// unconstrained there, not absent.
func Runtime(base manifest.RuntimeSet, baseOrigin string, addition manifest.RuntimeSet, additionOrigin string, opts Options) (manifest.RuntimeSet, error) {
	out := base.Clone()
	if out == nil {
		out = make(manifest.RuntimeSet, len(addition))
	}
	for name, add := range addition {
		existing, ok := out[name]
		if !ok {
			out[name] = add.Clone()
			continue
		}
		merged, err := platformPair(name, existing, add, baseOrigin, additionOrigin, opts)
		if err != nil {
			return nil, err
		}
		out[name] = merged
	}
	return out, nil
}

func platformPair(name string, base, add manifest.PlatformConstraint, baseOrigin, additionOrigin string, opts Options) (manifest.PlatformConstraint, error) {
	out := manifest.PlatformConstraint{}

	switch {
	case base.Default != nil && add.Default != nil:
		merged, err := pair(name, *base.Default, *add.Default, baseOrigin, additionOrigin, opts)
		if err != nil {
			return manifest.PlatformConstraint{}, err
		}
		out.Default = &merged
	case base.Default != nil:
		d := *base.Default
		out.Default = &d
	case add.Default != nil:
		d := *add.Default
		out.Default = &d
	}

	platforms := make(map[string]bool, len(base.Platforms)+len(add.Platforms))
	for platform := range base.Platforms {
		platforms[platform] = true
	}
	for platform := range add.Platforms {
		platforms[platform] = true
	}
	if len(platforms) == 0 {
		return out, nil
	}

	out.Platforms = make(map[string]manifest.Constraint, len(platforms))
	for platform := range platforms {
		baseC, baseOK := base.For(platform)
		addC, addOK := add.For(platform)
		switch {
		case baseOK && addOK:
			merged, err := pair(name, baseC, addC, baseOrigin, additionOrigin, opts)
			if err != nil {
				return manifest.PlatformConstraint{}, err
			}
			out.Platforms[platform] = merged
		case baseOK:
			out.Platforms[platform] = baseC
		default:
			out.Platforms[platform] = addC
		}
	}
	return out, nil
}

// Manifests merges every addition manifest into the base, in order, and
// returns the combined manifest. Conflict reports name the manifest that
// last contributed each constraint, not just the base.
func Manifests(base *manifest.Manifest, additions []*manifest.Manifest, opts Options) (*manifest.Manifest, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	merged := base.Clone()
	merged.Origin = base.Origin

	origins := newOriginTracker(base.Origin)
	origins.record(merged.Main)
	origins.record(merged.Dev)
	origins.recordRuntime(merged.Runtime)

	for _, addition := range additions {
		if err := addition.Validate(); err != nil {
			return nil, err
		}

		var err error
		merged.Main, err = mergeTracked(merged.Main, addition.Main, origins, addition.Origin, opts)
		if err != nil {
			return nil, err
		}
		merged.Dev, err = mergeTracked(merged.Dev, addition.Dev, origins, addition.Origin, opts)
		if err != nil {
			return nil, err
		}
		merged.Runtime, err = runtimeTracked(merged.Runtime, addition.Runtime, origins, addition.Origin, opts)
		if err != nil {
			return nil, err
		}

		for group, set := range addition.Extras {
			if merged.Extras == nil {
				merged.Extras = make(map[string]manifest.DependencySet)
			}
			merged.Extras[group], err = mergeTracked(merged.Extras[group], set, origins, addition.Origin, opts)
			if err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// originTracker remembers which manifest last set each dependency, so a later
// conflict names the true contributor instead of the accumulated base.
type originTracker struct {
	byName map[string]string
	base   string
}

func newOriginTracker(base string) *originTracker {
	return &originTracker{byName: make(map[string]string), base: base}
}

func (t *originTracker) record(set manifest.DependencySet) {
	for name := range set {
		t.byName[name] = t.base
	}
}

func (t *originTracker) recordRuntime(set manifest.RuntimeSet) {
	for name := range set {
		t.byName[name] = t.base
	}
}

func (t *originTracker) originOf(name string) string {
	if origin, ok := t.byName[name]; ok {
		return origin
	}
	return t.base
}

func mergeTracked(base, addition manifest.DependencySet, origins *originTracker, additionOrigin string, opts Options) (manifest.DependencySet, error) {
	out := base.Clone()
	if out == nil {
		out = make(manifest.DependencySet, len(addition))
	}
	for name, add := range addition {
		existing, ok := out[name]
		if !ok {
			if opts.isInterpreter(name) {
				add = manifest.RangeConstraint(opts.InterpreterTarget)
			}
			out[name] = add
			origins.byName[name] = additionOrigin
			continue
		}
		merged, err := pair(name, existing, add, origins.originOf(name), additionOrigin, opts)
		if err != nil {
			return nil, err
		}
		out[name] = merged
		origins.byName[name] = additionOrigin
	}
	return out, nil
}

func runtimeTracked(base, addition manifest.RuntimeSet, origins *originTracker, additionOrigin string, opts Options) (manifest.RuntimeSet, error) {
	out := base.Clone()
	if out == nil {
		out = make(manifest.RuntimeSet, len(addition))
	}
	for name, add := range addition {
		existing, ok := out[name]
		if !ok {
			out[name] = add.Clone()
			origins.byName[name] = additionOrigin
			continue
		}
		merged, err := platformPair(name, existing, add, origins.originOf(name), additionOrigin, opts)
		if err != nil {
			return nil, err
		}
		out[name] = merged
		origins.byName[name] = additionOrigin
	}
	return out, nil
}
