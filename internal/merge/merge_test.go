package merge

import (
	"errors"
	"testing"

	"github.com/Asgard118/ayon-dependencies-tool/internal/manifest"
	"github.com/Asgard118/ayon-dependencies-tool/internal/version"
)

func set(pairs map[string]string) manifest.DependencySet {
	return manifest.NewDependencySet(pairs)
}

func rangesEqual(t *testing.T, got manifest.Constraint, want string) {
	t.Helper()
	if got.IsDirect() {
		t.Fatalf("got direct constraint %s, want range %q", got, want)
	}
	gr := version.MustParseRange(got.Range)
	wr := version.MustParseRange(want)
	if !gr.Equal(wr) {
		t.Fatalf("got range %q, want equivalent of %q", got.Range, want)
	}
}

func TestSetsTightestCommonRange(t *testing.T) {
	base := set(map[string]string{"requests": ">=2.25"})
	add := set(map[string]string{"requests": ">=2.28, <3.0"})

	out, err := Sets(base, "base", add, "addon", Options{})
	if err != nil {
		t.Fatal(err)
	}
	rangesEqual(t, out["requests"], ">=2.28, <3.0")
}

func TestSetsAdoptsNewNames(t *testing.T) {
	base := set(map[string]string{"requests": "^2.25"})
	add := set(map[string]string{"click": "^8.0"})

	out, err := Sets(base, "base", add, "addon", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d names, want 2", len(out))
	}
	rangesEqual(t, out["click"], "^8.0")
	rangesEqual(t, out["requests"], "^2.25")
}

func TestSetsConflict(t *testing.T) {
	base := set(map[string]string{"numpy": "^1.20"})
	add := set(map[string]string{"numpy": "^2.0"})

	_, err := Sets(base, "addon-1", add, "addon-2", Options{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.Name != "numpy" {
		t.Errorf("conflict names %q, want numpy", conflict.Name)
	}
	if conflict.BaseOrigin != "addon-1" || conflict.AdditionOrigin != "addon-2" {
		t.Errorf("conflict origins %q/%q, want addon-1/addon-2",
			conflict.BaseOrigin, conflict.AdditionOrigin)
	}
}

func TestSetsDirectOriginPrecedence(t *testing.T) {
	base := set(map[string]string{"mypkg": "^1.0"})
	add := set(map[string]string{"mypkg": "https://example.com/mypkg-2.0.tar.gz"})

	out, err := Sets(base, "base", add, "addon", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !out["mypkg"].IsDirect() || out["mypkg"].URL == "" {
		t.Fatalf("got %s, want the addition URL pin", out["mypkg"])
	}

	// A pin already in the base survives an addition range.
	out, err = Sets(out, "base", set(map[string]string{"mypkg": "^3.0"}), "addon-2", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !out["mypkg"].IsDirect() {
		t.Fatalf("got %s, want the base pin to survive", out["mypkg"])
	}
}

func TestSetsInterpreterOverride(t *testing.T) {
	opts := Options{InterpreterKey: "python", InterpreterTarget: "3.9.*"}
	base := set(map[string]string{"python": "^3.9"})
	add := set(map[string]string{"python": ">=3.7"})

	out, err := Sets(base, "installer", add, "addon", opts)
	if err != nil {
		t.Fatal(err)
	}
	rangesEqual(t, out["python"], "3.9.*")
}

func TestSetsCommutativeForRanges(t *testing.T) {
	base := set(map[string]string{"requests": "^2.25", "six": ">=1.10"})
	a := set(map[string]string{"requests": "^2.28", "six": "<2.0"})
	b := set(map[string]string{"requests": "<3.0", "six": ">=1.12"})

	ab1, err := Sets(base, "base", a, "a", Options{})
	if err != nil {
		t.Fatal(err)
	}
	ab1, err = Sets(ab1, "base", b, "b", Options{})
	if err != nil {
		t.Fatal(err)
	}

	ab2, err := Sets(base, "base", b, "b", Options{})
	if err != nil {
		t.Fatal(err)
	}
	ab2, err = Sets(ab2, "base", a, "a", Options{})
	if err != nil {
		t.Fatal(err)
	}

	for name := range ab1 {
		r1 := version.MustParseRange(ab1[name].Range)
		r2 := version.MustParseRange(ab2[name].Range)
		if !r1.Equal(r2) {
			t.Errorf("%s: %q vs %q after reordering", name, ab1[name].Range, ab2[name].Range)
		}
	}
}

func TestSetsIdempotent(t *testing.T) {
	base := set(map[string]string{"requests": "^2.25", "six": ">=1.10, <2.0"})

	out, err := Sets(base, "base", base, "base", Options{})
	if err != nil {
		t.Fatal(err)
	}
	for name := range base {
		rangesEqual(t, out[name], base[name].Range)
	}
}

func TestRuntimePlatformMerge(t *testing.T) {
	def := manifest.RangeConstraint("^1.0")
	base := manifest.RuntimeSet{
		"ocio": {Platforms: map[string]manifest.Constraint{
			"windows": manifest.RangeConstraint(">=2.0, <2.2"),
		}},
	}
	add := manifest.RuntimeSet{
		"ocio": {
			Platforms: map[string]manifest.Constraint{
				"windows": manifest.RangeConstraint(">=2.1"),
				"linux":   manifest.RangeConstraint("^2.1"),
			},
			Default: &def,
		},
	}

	out, err := Runtime(base, "base", add, "addon", Options{})
	if err != nil {
		t.Fatal(err)
	}
	pc := out["ocio"]

	win, ok := pc.For("windows")
	if !ok {
		t.Fatal("windows entry missing")
	}
	rangesEqual(t, win, ">=2.1, <2.2")

	// Base has no linux entry and no default: unconstrained there, so the
	// addition's constraint is adopted as-is.
	linux, ok := pc.For("linux")
	if !ok {
		t.Fatal("linux entry missing")
	}
	rangesEqual(t, linux, "^2.1")

	if pc.Default == nil {
		t.Fatal("default should carry over from the addition")
	}
}

func TestRuntimeConflictOnOnePlatform(t *testing.T) {
	base := manifest.RuntimeSet{
		"ocio": {Platforms: map[string]manifest.Constraint{
			"windows": manifest.RangeConstraint("^1.0"),
		}},
	}
	add := manifest.RuntimeSet{
		"ocio": {Platforms: map[string]manifest.Constraint{
			"windows": manifest.RangeConstraint("^2.0"),
		}},
	}

	_, err := Runtime(base, "base", add, "addon", Options{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
}

func TestManifestsConflictNamesLastContributor(t *testing.T) {
	base := manifest.New("installer")
	base.Main = set(map[string]string{"requests": "*"})

	addon1 := manifest.New("core_1.2.0")
	addon1.Main = set(map[string]string{"numpy": "^1.20"})

	addon2 := manifest.New("nuke_1.0.0")
	addon2.Main = set(map[string]string{"numpy": "^2.0"})

	_, err := Manifests(base, []*manifest.Manifest{addon1, addon2}, Options{})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if conflict.BaseOrigin != "core_1.2.0" || conflict.AdditionOrigin != "nuke_1.0.0" {
		t.Errorf("conflict origins %q/%q, want core_1.2.0/nuke_1.0.0",
			conflict.BaseOrigin, conflict.AdditionOrigin)
	}
}

func TestManifestsEndToEndScenario(t *testing.T) {
	base := manifest.New("installer")
	base.Main = set(map[string]string{"requests": "^2.25"})

	addon1 := manifest.New("addon-1")
	addon1.Main = set(map[string]string{"requests": "^2.28"})

	addon2 := manifest.New("addon-2")
	addon2.Main = set(map[string]string{"requests": "<3.0"})

	merged, err := Manifests(base, []*manifest.Manifest{addon1, addon2}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	rangesEqual(t, merged.Main["requests"], ">=2.28, <3.0")
}

func TestManifestsMergesExtras(t *testing.T) {
	base := manifest.New("installer")
	base.Main = set(nil)

	addon := manifest.New("addon")
	addon.Main = set(nil)
	addon.Extras = map[string]manifest.DependencySet{
		"test": set(map[string]string{"pytest": "^7.0"}),
	}

	merged, err := Manifests(base, []*manifest.Manifest{addon}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := merged.Extras["test"]["pytest"]; !ok {
		t.Fatal("extras group not carried into the merged manifest")
	}
}
