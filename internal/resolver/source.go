package resolver

import (
	"context"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// SourceKind tells where a package version comes from.
type SourceKind int

const (
	// SourceRegistry is an ordinary package registry version.
	SourceRegistry SourceKind = iota

	// SourceDirect is a URL, VCS or path origin whose content identity is
	// not captured by its version number.
	SourceDirect
)

// MetadataSource supplies package metadata to the resolver. Implementations
// may be read concurrently by multiple resolver instances and must not be
// mutated during a resolution.
type MetadataSource interface {
	// Versions returns the available versions of a package, in any order.
	Versions(ctx context.Context, name string) ([]version.Version, error)

	// Dependencies returns the dependency requirements of one concrete
	// version of a package.
	Dependencies(ctx context.Context, name string, v version.Version) (manifest.DependencySet, error)

	// Kind reports where the given package version comes from.
	Kind(name string, v version.Version) SourceKind
}
