package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

// InMemorySource is a MetadataSource backed by maps. Used in tests and for
// pre-fetched metadata snapshots.
type InMemorySource struct {
	mu       sync.RWMutex
	packages map[string]map[string]packageEntry
}

type packageEntry struct {
	version version.Version
	deps    manifest.DependencySet
	kind    SourceKind
}

// NewInMemorySource returns an empty source.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{packages: make(map[string]map[string]packageEntry)}
}

// Add registers one package version with its dependency requirements.
// Raw requirement strings are parsed the same way manifests are.
func (s *InMemorySource) Add(name, ver string, deps map[string]string) *InMemorySource {
	return s.add(name, ver, deps, SourceRegistry)
}

// AddDirect registers a direct-origin package version.
func (s *InMemorySource) AddDirect(name, ver string, deps map[string]string) *InMemorySource {
	return s.add(name, ver, deps, SourceDirect)
}

func (s *InMemorySource) add(name, ver string, deps map[string]string, kind SourceKind) *InMemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = manifest.CanonicalName(name)
	v := version.MustParse(ver)
	if s.packages[name] == nil {
		s.packages[name] = make(map[string]packageEntry)
	}
	s.packages[name][v.String()] = packageEntry{
		version: v,
		deps:    manifest.NewDependencySet(deps),
		kind:    kind,
	}
	return s
}

// Versions implements MetadataSource.
func (s *InMemorySource) Versions(_ context.Context, name string) ([]version.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.packages[manifest.CanonicalName(name)]
	if !ok {
		return nil, &MetadataError{Name: name, Err: fmt.Errorf("unknown package")}
	}
	out := make([]version.Version, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.version)
	}
	return out, nil
}

// Dependencies implements MetadataSource.
func (s *InMemorySource) Dependencies(_ context.Context, name string, v version.Version) (manifest.DependencySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.packages[manifest.CanonicalName(name)][v.String()]
	if !ok {
		return nil, &MetadataError{Name: name, Err: fmt.Errorf("unknown version %s", v)}
	}
	return entry.deps.Clone(), nil
}

// Kind implements MetadataSource.
func (s *InMemorySource) Kind(name string, v version.Version) SourceKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.packages[manifest.CanonicalName(name)][v.String()]
	if !ok {
		return SourceRegistry
	}
	return entry.kind
}
