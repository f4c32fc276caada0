package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersionHasDefault(t *testing.T) {
	if Version == "" {
		t.Fatalf("Version should have a default value")
	}
}

func TestColorizeWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	cases := []struct {
		in, want string
	}{
		{"1.2.3", "1.2.3"},
		{"1.2", "1.2"},
		{"1..3", "1..3"},
		{"dev", "dev"},
	}
	for _, tc := range cases {
		if got := Colorize(tc.in); got != tc.want {
			t.Fatalf("Colorize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitSemver(t *testing.T) {
	if got := splitSemver("0.3.0"); len(got) != 3 || got[0] != "0" || got[2] != "0" {
		t.Fatalf("splitSemver(0.3.0) = %v", got)
	}
	if got := splitSemver("0.3"); got != nil {
		t.Fatalf("splitSemver(0.3) = %v, want nil", got)
	}
}

func TestVersionCanBeOverridden(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3"
	if Version != "1.2.3" {
		t.Fatalf("Version = %q, want %q", Version, "1.2.3")
	}
}
