package registry

import (
	"context"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
)

// Client is everything the engine needs from the addon server.
type Client interface {
	// Bundles lists all bundles known to the server.
	Bundles(ctx context.Context) ([]Bundle, error)

	// Installers lists all installer builds.
	Installers(ctx context.Context) ([]Installer, error)

	// AddonManifest returns the dependency manifest declared by one addon
	// version. Returns ErrNotFound when the addon declares none.
	AddonManifest(ctx context.Context, name, ver string) (*manifest.Manifest, error)

	// CreateDependencyPackage registers a produced package's metadata.
	CreateDependencyPackage(ctx context.Context, pkg *DependencyPackage) error

	// UpdateBundle assigns dependency packages back onto a bundle.
	UpdateBundle(ctx context.Context, bundle *Bundle) error

	// EnrollEventJob claims the next pending job from sourceTopic,
	// creating a job event under targetTopic. Returns ErrNoEvent when the
	// queue is empty.
	EnrollEventJob(ctx context.Context, sourceTopic, targetTopic, sender string) (*Event, error)

	// UpdateEvent patches a previously enrolled event.
	UpdateEvent(ctx context.Context, id string, update EventUpdate) error
}
