package version

import "testing"

func TestParseRangeCaret(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"^1.2.3", ">=1.2.3, <2.0.0"},
		{"^1.2", ">=1.2.0, <2.0.0"},
		{"^1", ">=1.0.0, <2.0.0"},
		{"^0.2.3", ">=0.2.3, <0.3.0"},
		{"^0.0.3", ">=0.0.3, <0.0.4"},
		{"^0.0", ">=0.0.0, <0.1.0"},
		{"^0", ">=0.0.0, <1.0.0"},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.expr, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseRange(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestParseRangeTilde(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"~1.2.3", ">=1.2.3, <1.3.0"},
		{"~1.2", ">=1.2.0, <1.3.0"},
		{"~1", ">=1.0.0, <2.0.0"},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.expr, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseRange(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestParseRangeWildcard(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"3.9.*", ">=3.9.0, <3.10.0"},
		{"3.*", ">=3.0.0, <4.0.0"},
		{"1.x", ">=1.0.0, <2.0.0"},
		{"*", "*"},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.expr, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseRange(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestParseRangeOperators(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{">=2.28", ">=2.28.0"},
		{">2.28", ">2.28.0"},
		{"<=3.0", "<=3.0.0"},
		{"<3.0", "<3.0.0"},
		{"==2.28.1", "==2.28.1"},
		{"=2.28.1", "==2.28.1"},
		{"2.28.1", "==2.28.1"},
		{"!=2.28.1", "<2.28.1 || >2.28.1"},
		{">=2.28 <3.0", ">=2.28.0, <3.0.0"},
		{">=2.28, <3.0", ">=2.28.0, <3.0.0"},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.expr)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tt.expr, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseRange(%q) = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestParseRangeErrors(t *testing.T) {
	for _, expr := range []string{">=", "^", "not-a-version", "1.2.3 ||", ">= ||"} {
		if _, err := ParseRange(expr); err == nil {
			t.Errorf("ParseRange(%q): expected error", expr)
		}
	}
}
