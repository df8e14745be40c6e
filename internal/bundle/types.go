package bundle

import (
	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/planner"
	"github.com/Asgard118/ayon-dependencies-tool/internal/registry"
	"github.com/Asgard118/ayon-dependencies-tool/internal/state"
)

// BuildRequest describes one dependency package build.
type BuildRequest struct {
	// Bundle is the bundle name to build for.
	Bundle string

	// Platform is the explicit target platform. The engine never reads
	// the ambient OS; cross-platform builds are ordinary builds.
	Platform string

	// Synchronize also plans uninstalls for packages the previous
	// resolution had and the new one does not.
	Synchronize bool

	// DryRun computes everything but writes nothing: no package record,
	// no bundle update, no lock.
	DryRun bool

	// SkipBundleUpdate creates the package record without assigning it
	// back onto the bundle.
	SkipBundleUpdate bool

	// Update resolves fresh instead of preferring locked versions.
	Update bool

	// UpdateScope limits Update to the named packages.
	UpdateScope []string

	// Extras are optional dependency groups to include.
	Extras []string

	// LocalManifests are merged after the bundle's published addons, for
	// addons under development that are not on the server yet.
	LocalManifests []*manifest.Manifest
}

// BuildResult is the outcome of one build.
type BuildResult struct {
	// Package is the produced dependency package descriptor. Nil when an
	// existing package was reused.
	Package *registry.DependencyPackage

	// Operations is the ordered plan for materializing the environment.
	Operations []planner.Operation

	// Reused is set when the bundle's existing dependency package already
	// matches the resolution and no new package was produced.
	Reused bool

	// Lock is the state persisted after the build.
	Lock *state.LockState
}
