package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

func deps(pairs map[string]string) manifest.DependencySet {
	return manifest.NewDependencySet(pairs)
}

func resolve(t *testing.T, source MetadataSource, set manifest.DependencySet, opts Options) Graph {
	t.Helper()
	graph, err := NewBacktracking(source).Resolve(context.Background(), set, opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return graph
}

func TestResolvePicksLatestSatisfying(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.27.0", nil).
		Add("requests", "2.28.0", nil).
		Add("requests", "2.31.0", nil)

	graph := resolve(t, source, deps(map[string]string{"requests": ">=2.28, <3.0"}), Options{})
	if got := graph["requests"].Version.String(); got != "2.31.0" {
		t.Fatalf("resolved requests %s, want 2.31.0", got)
	}
}

func TestResolveTransitiveClosure(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.31.0", map[string]string{"urllib3": "^2.0", "certifi": "*"}).
		Add("urllib3", "2.1.0", nil).
		Add("certifi", "2024.2.2", nil)

	graph := resolve(t, source, deps(map[string]string{"requests": "^2.28"}), Options{})

	for _, name := range []string{"requests", "urllib3", "certifi"} {
		if _, ok := graph[name]; !ok {
			t.Errorf("%s missing from graph", name)
		}
	}
	if got := graph["urllib3"].Version.String(); got != "2.1.0" {
		t.Errorf("urllib3 = %s, want 2.1.0", got)
	}
}

func TestResolveBacktracks(t *testing.T) {
	// b's newest version needs c ^2.0 while a needs c ^1.0, so the search
	// must fall back to b 1.0.0.
	source := NewInMemorySource().
		Add("a", "1.0.0", map[string]string{"c": "^1.0"}).
		Add("b", "2.0.0", map[string]string{"c": "^2.0"}).
		Add("b", "1.0.0", map[string]string{"c": "^1.0"}).
		Add("c", "1.5.0", nil).
		Add("c", "2.5.0", nil)

	graph := resolve(t, source, deps(map[string]string{"a": "*", "b": "*"}), Options{})

	if got := graph["b"].Version.String(); got != "1.0.0" {
		t.Errorf("b = %s, want 1.0.0 after backtracking", got)
	}
	if got := graph["c"].Version.String(); got != "1.5.0" {
		t.Errorf("c = %s, want 1.5.0", got)
	}
}

func TestResolveUnsatisfiableNamesConflictPair(t *testing.T) {
	source := NewInMemorySource().
		Add("a", "1.0.0", map[string]string{"numpy": "^1.20"}).
		Add("b", "1.0.0", map[string]string{"numpy": "^2.0"}).
		Add("numpy", "1.24.0", nil).
		Add("numpy", "2.1.0", nil)

	_, err := NewBacktracking(source).Resolve(context.Background(),
		deps(map[string]string{"a": "*", "b": "*"}), Options{})

	var unsat *UnsatisfiableError
	if !errors.As(err, &unsat) {
		t.Fatalf("got %v, want UnsatisfiableError", err)
	}
	if unsat.Name != "numpy" {
		t.Errorf("failure names %q, want numpy", unsat.Name)
	}
	if len(unsat.Pairs) == 0 {
		t.Fatal("expected a minimal conflict pair")
	}
	pair := unsat.Pairs[0]
	if pair[0].Origin == pair[1].Origin {
		t.Errorf("pair should name two distinct origins, got %s and %s", pair[0], pair[1])
	}
}

func TestResolveSoundness(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.27.0", nil).
		Add("requests", "2.31.0", map[string]string{"six": ">=1.10"}).
		Add("six", "1.16.0", nil).
		Add("six", "1.12.0", nil)

	declared := deps(map[string]string{"requests": "^2.25", "six": "<1.15"})
	graph := resolve(t, source, declared, Options{})

	for name, c := range declared {
		r := version.MustParseRange(c.Range)
		if !r.Contains(graph[name].Version) {
			t.Errorf("%s resolved to %s which violates declared %q",
				name, graph[name].Version, c.Range)
		}
	}
}

func TestResolveDirectPinIsTerminal(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.31.0", nil)

	set := deps(map[string]string{
		"requests": "^2.28",
		"mytool":   "git+https://example.com/mytool.git@abc123",
	})
	graph := resolve(t, source, set, Options{})

	res, ok := graph["mytool"]
	if !ok || !res.IsDirect() {
		t.Fatal("direct pin should resolve to a direct-origin resolution")
	}
	if res.Direct.Git != "https://example.com/mytool.git" || res.Direct.Rev != "abc123" {
		t.Errorf("direct pin carried %s, want git location with revision", res.Direct)
	}
}

func TestResolveReusePrefersLock(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.28.0", nil).
		Add("requests", "2.31.0", nil)

	lock := Graph{"requests": {Name: "requests", Version: version.MustParse("2.28.0")}}

	graph := resolve(t, source, deps(map[string]string{"requests": "^2.25"}), Options{Lock: lock})
	if got := graph["requests"].Version.String(); got != "2.28.0" {
		t.Errorf("reuse mode resolved %s, want locked 2.28.0", got)
	}
}

func TestResolveReuseDropsStaleLock(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.28.0", nil).
		Add("requests", "2.31.0", nil)

	// Locked version no longer satisfies the merged constraints.
	lock := Graph{"requests": {Name: "requests", Version: version.MustParse("2.27.0")}}

	graph := resolve(t, source, deps(map[string]string{"requests": "^2.28"}), Options{Lock: lock})
	if got := graph["requests"].Version.String(); got != "2.31.0" {
		t.Errorf("stale lock resolved %s, want 2.31.0", got)
	}
}

func TestResolveUpdateScope(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.28.0", nil).
		Add("requests", "2.31.0", nil).
		Add("six", "1.15.0", nil).
		Add("six", "1.16.0", nil)

	lock := Graph{
		"requests": {Name: "requests", Version: version.MustParse("2.28.0")},
		"six":      {Name: "six", Version: version.MustParse("1.15.0")},
	}
	set := deps(map[string]string{"requests": "^2.25", "six": ">=1.10"})

	graph := resolve(t, source, set, Options{
		Lock:        lock,
		Update:      true,
		UpdateScope: []string{"requests"},
	})
	if got := graph["requests"].Version.String(); got != "2.31.0" {
		t.Errorf("in-scope requests = %s, want updated 2.31.0", got)
	}
	if got := graph["six"].Version.String(); got != "1.15.0" {
		t.Errorf("out-of-scope six = %s, want locked 1.15.0", got)
	}
}

func TestResolveExtraNotFound(t *testing.T) {
	source := NewInMemorySource().Add("requests", "2.31.0", nil)

	_, err := NewBacktracking(source).Resolve(context.Background(),
		deps(map[string]string{"requests": "*"}),
		Options{
			Extras: []string{"gpu"},
			DeclaredExtras: map[string]manifest.DependencySet{
				"test": deps(map[string]string{"pytest": "^7.0"}),
			},
		})

	var notFound *ExtraNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want ExtraNotFoundError", err)
	}
	if notFound.Extra != "gpu" {
		t.Errorf("error names %q, want gpu", notFound.Extra)
	}
}

func TestResolveExtrasJoinSearch(t *testing.T) {
	source := NewInMemorySource().
		Add("requests", "2.31.0", nil).
		Add("pytest", "7.4.0", nil)

	graph := resolve(t, source,
		deps(map[string]string{"requests": "*"}),
		Options{
			Extras: []string{"test"},
			DeclaredExtras: map[string]manifest.DependencySet{
				"test": deps(map[string]string{"pytest": "^7.0"}),
			},
		})
	if _, ok := graph["pytest"]; !ok {
		t.Fatal("requested extra's dependency missing from graph")
	}
}

func TestResolveStepBudget(t *testing.T) {
	source := NewInMemorySource()
	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0", "1.3.0"} {
		source.Add("a", v, map[string]string{"b": "^9.0"})
		source.Add("b", v, nil)
	}

	r := NewBacktracking(source)
	r.MaxSteps = 2
	_, err := r.Resolve(context.Background(), deps(map[string]string{"a": "*"}), Options{})

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("got %v, want TimeoutError", err)
	}
	if timeout.Err != nil {
		t.Errorf("budget exhaustion should not wrap a cause, got %v", timeout.Err)
	}
}

func TestResolveCancellation(t *testing.T) {
	source := NewInMemorySource().Add("requests", "2.31.0", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBacktracking(source).Resolve(ctx, deps(map[string]string{"requests": "*"}), Options{})

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("got %v, want TimeoutError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancellation should wrap context.Canceled, got %v", timeout.Err)
	}
}

func TestResolveUnknownPackage(t *testing.T) {
	source := NewInMemorySource()

	_, err := NewBacktracking(source).Resolve(context.Background(),
		deps(map[string]string{"ghost": "*"}), Options{})

	var meta *MetadataError
	if !errors.As(err, &meta) {
		t.Fatalf("got %v, want MetadataError", err)
	}
}

func TestCachedSourceFetchesOnce(t *testing.T) {
	inner := &countingSource{source: NewInMemorySource().Add("requests", "2.31.0", nil)}
	cached := NewCachedSource(inner)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := cached.Versions(ctx, "requests"); err != nil {
			t.Fatal(err)
		}
		if _, err := cached.Dependencies(ctx, "requests", version.MustParse("2.31.0")); err != nil {
			t.Fatal(err)
		}
	}
	if inner.versionCalls != 1 || inner.depCalls != 1 {
		t.Errorf("inner source called %d/%d times, want 1/1", inner.versionCalls, inner.depCalls)
	}
}

type countingSource struct {
	source       MetadataSource
	versionCalls int
	depCalls     int
}

func (c *countingSource) Versions(ctx context.Context, name string) ([]version.Version, error) {
	c.versionCalls++
	return c.source.Versions(ctx, name)
}

func (c *countingSource) Dependencies(ctx context.Context, name string, v version.Version) (manifest.DependencySet, error) {
	c.depCalls++
	return c.source.Dependencies(ctx, name, v)
}

func (c *countingSource) Kind(name string, v version.Version) SourceKind {
	return c.source.Kind(name, v)
}
