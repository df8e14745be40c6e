package resolver

import (
	"context"
	"sync"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// CachedSource memoizes another MetadataSource. The backtracking search asks
// for the same package repeatedly while exploring candidates; wrapping a
// network-backed source keeps that to one fetch per package.
//
// Errors are not cached: a transient fetch failure on one branch should not
// poison the rest of the search.
type CachedSource struct {
	source MetadataSource

	mu       sync.Mutex
	versions map[string][]version.Version
	deps     map[string]manifest.DependencySet
}

// NewCachedSource wraps source with a per-resolution cache.
func NewCachedSource(source MetadataSource) *CachedSource {
	return &CachedSource{
		source:   source,
		versions: make(map[string][]version.Version),
		deps:     make(map[string]manifest.DependencySet),
	}
}

// Versions implements MetadataSource.
func (c *CachedSource) Versions(ctx context.Context, name string) ([]version.Version, error) {
	name = manifest.CanonicalName(name)

	c.mu.Lock()
	cached, ok := c.versions[name]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	fetched, err := c.source.Versions(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.versions[name] = fetched
	c.mu.Unlock()
	return fetched, nil
}

// Dependencies implements MetadataSource.
func (c *CachedSource) Dependencies(ctx context.Context, name string, v version.Version) (manifest.DependencySet, error) {
	key := manifest.CanonicalName(name) + "@" + v.String()

	c.mu.Lock()
	cached, ok := c.deps[key]
	c.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	fetched, err := c.source.Dependencies(ctx, name, v)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.deps[key] = fetched
	c.mu.Unlock()
	return fetched.Clone(), nil
}

// Kind implements MetadataSource.
func (c *CachedSource) Kind(name string, v version.Version) SourceKind {
	return c.source.Kind(name, v)
}
