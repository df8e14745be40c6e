package version

import "testing"

func TestRangeContains(t *testing.T) {
	tests := []struct {
		expr    string
		version string
		want    bool
	}{
		{"*", "0.0.1", true},
		{"^2.28", "2.28.0", true},
		{"^2.28", "2.31.4", true},
		{"^2.28", "3.0.0", false},
		{"^2.28", "2.27.9", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{">=2.28, <3.0", "2.99.0", true},
		{">=2.28, <3.0", "3.0.0", false},
		{"3.9.*", "3.9.13", true},
		{"3.9.*", "3.10.0", false},
		{"!=1.5.0", "1.5.0", false},
		{"!=1.5.0", "1.5.1", true},
		{"<1.5 || >=2.0", "1.4.9", true},
		{"<1.5 || >=2.0", "1.7.0", false},
		{"<1.5 || >=2.0", "2.0.0", true},
		{"1.16.0", "1.16.0", true},
		{"1.16.0", "1.16.1", false},
	}
	for _, tt := range tests {
		r := MustParseRange(tt.expr)
		if got := r.Contains(MustParse(tt.version)); got != tt.want {
			t.Errorf("(%s).Contains(%s) = %v, want %v", tt.expr, tt.version, got, tt.want)
		}
	}
}

func TestRangeIntersect(t *testing.T) {
	tests := []struct {
		a, b string
		want string
		anyV bool // want non-empty
	}{
		{"^2.25", "^2.28", ">=2.28.0, <3.0.0", true},
		{"^2.28", "<3.0", ">=2.28.0, <3.0.0", true},
		{"^1.20", "^2.0", "", false},
		{"3.9.5", "3.9.8", "", false},
		{"*", "^1.2", ">=1.2.0, <2.0.0", true},
		{">=1.0", "<=1.0", "==1.0.0", true},
	}
	for _, tt := range tests {
		got := MustParseRange(tt.a).Intersect(MustParseRange(tt.b))
		if got.IsEmpty() == tt.anyV {
			t.Errorf("(%s).Intersect(%s): empty = %v, want %v", tt.a, tt.b, got.IsEmpty(), !tt.anyV)
			continue
		}
		if tt.anyV && !got.Equal(MustParseRange(tt.want)) {
			t.Errorf("(%s).Intersect(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRangeIntersectCommutative(t *testing.T) {
	exprs := []string{"^2.28", ">=2.25, <2.30", "*", "!=2.28.1", "<1.0 || >=2.5"}
	for _, a := range exprs {
		for _, b := range exprs {
			ab := MustParseRange(a).Intersect(MustParseRange(b))
			ba := MustParseRange(b).Intersect(MustParseRange(a))
			if !ab.Equal(ba) {
				t.Errorf("intersect not commutative for %q and %q: %s vs %s", a, b, ab, ba)
			}
		}
	}
}

func TestRangeIntersectIdempotent(t *testing.T) {
	for _, expr := range []string{"^2.28", "3.9.*", "!=1.0.0", "*"} {
		r := MustParseRange(expr)
		if got := r.Intersect(r); !got.Equal(r) {
			t.Errorf("(%s).Intersect(self) = %s, want %s", expr, got, r)
		}
	}
}

func TestRangeComplement(t *testing.T) {
	r := MustParseRange(">=1.5, <2.0")
	c := r.Complement()

	for _, v := range []string{"1.5.0", "1.9.9"} {
		if c.Contains(MustParse(v)) {
			t.Errorf("complement should not contain %s", v)
		}
	}
	for _, v := range []string{"1.4.9", "2.0.0"} {
		if !c.Contains(MustParse(v)) {
			t.Errorf("complement should contain %s", v)
		}
	}
	if !c.Complement().Equal(r) {
		t.Errorf("double complement = %s, want %s", c.Complement(), r)
	}
}

func TestRangeUnionMergesTouching(t *testing.T) {
	a := MustParseRange(">=1.0, <1.5")
	b := MustParseRange(">=1.5, <2.0")
	got := a.Union(b)
	want := MustParseRange(">=1.0, <2.0")
	if !got.Equal(want) {
		t.Errorf("union = %s, want %s", got, want)
	}

	// The complement of an exact pin meets itself at two exclusive
	// endpoints: 1.5.0 stays out, the halves must not merge.
	gap := MustParseRange("!=1.5.0")
	if gap.Contains(MustParse("1.5.0")) {
		t.Error("both-exclusive endpoints must keep the gap")
	}
	if gap.IsAny() {
		t.Errorf("!=1.5.0 = %s, must not collapse to *", gap)
	}

	// A pin closes the gap: <1.5 || ==1.5 || >1.5 covers everything.
	closed := MustParseRange("<1.5").Union(Exact(MustParse("1.5.0"))).Union(MustParseRange(">1.5"))
	if !closed.IsAny() {
		t.Errorf("closed gap = %s, want *", closed)
	}
}

func TestMaxSatisfying(t *testing.T) {
	candidates := []Version{
		MustParse("2.27.0"),
		MustParse("2.28.0"),
		MustParse("2.31.0"),
	}

	r := MustParseRange("^2.28").Intersect(MustParseRange("<3.0"))
	got, ok := MaxSatisfying(r, candidates)
	if !ok || got.String() != "2.31.0" {
		t.Fatalf("MaxSatisfying = %s, %v; want 2.31.0, true", got, ok)
	}

	if _, ok := MaxSatisfying(MustParseRange("^3.0"), candidates); ok {
		t.Fatal("expected no candidate for ^3.0")
	}
}

func TestRangeString(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"*", "*"},
		{"1.16.0", "==1.16.0"},
		{"^2.28", ">=2.28.0, <3.0.0"},
		{"<1.5 || >=2.0", "<1.5.0 || >=2.0.0"},
	}
	for _, tt := range tests {
		if got := MustParseRange(tt.expr).String(); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}
