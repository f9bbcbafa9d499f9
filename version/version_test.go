package version

import (
	"slices"
	"testing"
)

func TestParseParts(t *testing.T) {
	tests := []struct {
		input       string
		wantParts   []string
		wantBase    string
		wantQualify bool
	}{
		{"1.0.0", []string{"1", "0", "0"}, "1.0.0", false},
		{"1.2-rc1", []string{"1", "2", "rc", "1"}, "1.2", true},
		{"1a1", []string{"1", "a", "1"}, "1", true},
		{"2.0_beta+build", []string{"2", "0", "beta", "build"}, "2.0", true},
		{"1.0-SNAPSHOT", []string{"1", "0", "SNAPSHOT"}, "1.0", true},
		{"", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := Parse(tt.input)
			var got []string
			for _, p := range v.Parts() {
				got = append(got, p.Text)
			}
			if !slices.Equal(got, tt.wantParts) {
				t.Errorf("Parse(%q).Parts() = %v, want %v", tt.input, got, tt.wantParts)
			}
			if v.BaseVersion().String() != tt.wantBase {
				t.Errorf("Parse(%q).BaseVersion() = %q, want %q", tt.input, v.BaseVersion(), tt.wantBase)
			}
			if v.IsQualified() != tt.wantQualify {
				t.Errorf("Parse(%q).IsQualified() = %v, want %v", tt.input, v.IsQualified(), tt.wantQualify)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		// numeric parts
		{"1.0", "2.0", -1},
		{"1.10", "1.9", 1},
		{"1.0", "1.0", 0},
		{"1.0", "1.00", 0},
		{"1.0.0", "1.0", 1},
		{"10000000000000000000001", "10000000000000000000000", 1},

		// numeric beats non-numeric
		{"1.1", "1.a", 1},
		{"1.1.a", "1.1", -1},
		{"1.1-alpha", "1.1", -1},

		// qualifiers
		{"1.0-alpha", "1.0-beta", -1},
		{"1.0-dev", "1.0-alpha", -1},
		{"1.0-rc1", "1.0-beta", 1},
		{"1.0-rc", "1.0-SNAPSHOT", -1},
		{"1.0-snapshot", "1.0-final", -1},
		{"1.0-final", "1.0-ga", -1},
		{"1.0-ga", "1.0-release", -1},
		{"1.0-release", "1.0-sp", -1},
		{"1.0-rc1", "1.0-rc2", -1},

		// separators are equivalent
		{"1.0-1", "1.0.1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := sign(Compare(tt.a, tt.b)); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := sign(Compare(tt.b, tt.a)); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestSemantic(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"1.2", "1.2.0", 0},
		{"v1.3.0", "1.2.9", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-beta.11", "1.0.0-beta.2", 1},
		{"1.0.0+build.1", "1.0.0+build.2", 0},
		// not semver: default ordering
		{"release-2", "release-10", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := sign(Semantic(tt.a, tt.b)); got != tt.want {
				t.Errorf("Semantic(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	versions := []string{"1.10", "1.2-rc1", "1.2", "1.9", "1.2-beta"}
	Sort(versions, nil)
	want := []string{"1.2-beta", "1.2-rc1", "1.2", "1.9", "1.10"}
	if !slices.Equal(versions, want) {
		t.Errorf("Sort() = %v, want %v", versions, want)
	}

	if got := Max("1.2", "1.10"); got != "1.10" {
		t.Errorf("Max() = %q, want 1.10", got)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
