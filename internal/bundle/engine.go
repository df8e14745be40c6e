// Package bundle orchestrates one dependency package build: fetch the bundle
// and installer, merge all addon manifests over the baseline, resolve, diff
// against the baseline resolution, plan operations and record the result.
//
// A build is all-or-nothing: the lock and the server records are written only
// after every computation has succeeded. A dry run performs no writes at all.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/chainguard-dev/clog"

	"github.com/Asgard118/ayon-dependencies-tool/internal/clock"
	"github.com/Asgard118/ayon-dependencies-tool/internal/delta"
	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/merge"
	"github.com/Asgard118/ayon-dependencies-tool/internal/planner"
	"github.com/Asgard118/ayon-dependencies-tool/internal/registry"
	"github.com/Asgard118/ayon-dependencies-tool/internal/resolver"
	"github.com/Asgard118/ayon-dependencies-tool/internal/state"
)

// DefaultInterpreterKey is the dependency name treated as the runtime
// interpreter unless the engine is configured otherwise.
const DefaultInterpreterKey = "python"

// Engine builds dependency packages for bundles.
type Engine struct {
	Client registry.Client

	// Source supplies package metadata to the resolver. Usually the same
	// HTTP client, wrapped per build in a cache.
	Source resolver.MetadataSource

	// Locks persists resolutions between builds.
	Locks state.Store

	Clock clock.Clock

	// InterpreterKey overrides DefaultInterpreterKey.
	InterpreterKey string

	// MaxSteps bounds the resolver search. Zero means the resolver's
	// default budget.
	MaxSteps int
}

func (e *Engine) interpreterKey() string {
	if e.InterpreterKey != "" {
		return e.InterpreterKey
	}
	return DefaultInterpreterKey
}

// Build runs one dependency package build.
func (e *Engine) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	log := clog.FromContext(ctx).With("bundle", req.Bundle, "platform", req.Platform)

	bndl, err := e.findBundle(ctx, req.Bundle)
	if err != nil {
		return nil, err
	}
	installer, err := e.findInstaller(ctx, bndl.InstallerVersion, req.Platform)
	if err != nil {
		return nil, err
	}

	base := installer.Manifest(e.interpreterKey())
	addons, err := e.addonManifests(ctx, bndl)
	if err != nil {
		return nil, err
	}
	addons = append(addons, req.LocalManifests...)
	log.Info("merging manifests", "addons", len(addons))

	merged, err := merge.Manifests(base, addons, merge.Options{
		InterpreterKey:    e.interpreterKey(),
		InterpreterTarget: installer.PythonVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("merge manifests: %w", err)
	}

	lockGraph, lockFound, err := e.loadLock(req.Bundle, req.Platform)
	if err != nil {
		return nil, err
	}

	engine := &resolver.Backtracking{
		Source:   resolver.NewCachedSource(e.Source),
		MaxSteps: e.MaxSteps,
	}
	calc := &delta.Calculator{Resolver: engine, Platform: req.Platform}
	result, err := calc.Run(ctx, merged, base, resolver.Options{
		Lock:           lockGraph,
		Update:         req.Update,
		UpdateScope:    req.UpdateScope,
		Extras:         req.Extras,
		DeclaredExtras: merged.Extras,
	})
	if err != nil {
		return nil, err
	}
	log.Info("resolved dependency graphs",
		"full", len(result.Full), "baseline", len(result.Base), "delta", len(result.Packages))

	lock := &state.LockState{
		Bundle:           req.Bundle,
		Platform:         req.Platform,
		InstallerVersion: installer.Version,
		CreatedAt:        e.Clock.Now(),
		Packages:         state.FromGraph(result.Full),
	}

	// When the resolution matches the lock and the bundle already carries
	// a package for this platform, that package is still applicable.
	if lockFound && bndl.DependencyPackages[req.Platform] != "" && graphsEqual(result.Full, lockGraph) {
		log.Info("existing dependency package still applicable",
			"package", bndl.DependencyPackages[req.Platform])
		return &BuildResult{Reused: true, Lock: lock}, nil
	}

	operations := planner.Plan(lockGraph, result.Full, req.Synchronize)

	pkg := &registry.DependencyPackage{
		Filename:         PackageBasename(e.Clock.Now(), req.Platform) + ".zip",
		Platform:         req.Platform,
		InstallerVersion: installer.Version,
		PythonModules:    pinStrings(result.Packages, result.Runtime),
		SourceAddons:     bndl.Addons,
	}

	if req.DryRun {
		log.Info("dry run, skipping package creation", "filename", pkg.Filename)
		return &BuildResult{Package: pkg, Operations: operations, Lock: lock}, nil
	}

	if err := e.Client.CreateDependencyPackage(ctx, pkg); err != nil {
		return nil, fmt.Errorf("create dependency package: %w", err)
	}
	if !req.SkipBundleUpdate {
		if bndl.DependencyPackages == nil {
			bndl.DependencyPackages = make(map[string]string)
		}
		bndl.DependencyPackages[req.Platform] = pkg.Filename
		if err := e.Client.UpdateBundle(ctx, bndl); err != nil {
			return nil, fmt.Errorf("update bundle: %w", err)
		}
	}

	// The lock is written last: a failed build must not move the baseline
	// for the next one.
	if err := e.Locks.Save(lock); err != nil {
		return nil, fmt.Errorf("save lock: %w", err)
	}
	log.Info("dependency package created", "filename", pkg.Filename, "operations", len(operations))

	return &BuildResult{Package: pkg, Operations: operations, Lock: lock}, nil
}

func (e *Engine) findBundle(ctx context.Context, name string) (*registry.Bundle, error) {
	bundles, err := e.Client.Bundles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	for i := range bundles {
		if bundles[i].Name == name {
			return &bundles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrBundleNotFound, name)
}

func (e *Engine) findInstaller(ctx context.Context, ver, platform string) (*registry.Installer, error) {
	installers, err := e.Client.Installers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installers: %w", err)
	}
	for i := range installers {
		if installers[i].Version == ver && installers[i].Platform == platform {
			return &installers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: version %q on %s", ErrInstallerNotFound, ver, platform)
}

// addonManifests fetches each addon's manifest in name order. Addons without
// a manifest contribute nothing and are skipped.
func (e *Engine) addonManifests(ctx context.Context, bndl *registry.Bundle) ([]*manifest.Manifest, error) {
	names := make([]string, 0, len(bndl.Addons))
	for name := range bndl.Addons {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*manifest.Manifest, 0, len(names))
	for _, name := range names {
		m, err := e.Client.AddonManifest(ctx, name, bndl.Addons[name])
		if errors.Is(err, registry.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("manifest for addon %s %s: %w", name, bndl.Addons[name], err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (e *Engine) loadLock(bundleName, platform string) (resolver.Graph, bool, error) {
	lock, err := e.Locks.Load(bundleName, platform)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load lock: %w", err)
	}
	graph, err := lock.Graph()
	if err != nil {
		return nil, false, fmt.Errorf("load lock: %w", err)
	}
	return graph, true, nil
}

func graphsEqual(a, b resolver.Graph) bool {
	if len(a) != len(b) {
		return false
	}
	for name, res := range a {
		other, ok := b[name]
		if !ok || !res.Equal(other) {
			return false
		}
	}
	return true
}

// pinStrings flattens the delta sets into the package's module listing.
func pinStrings(sets ...manifest.DependencySet) map[string]string {
	out := make(map[string]string)
	for _, set := range sets {
		for name, c := range set {
			out[name] = c.String()
		}
	}
	return out
}
