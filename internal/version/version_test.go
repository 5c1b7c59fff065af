package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, major, minor, patch, suffix string) {
	t.Helper()
	orig := [4]string{Major, Minor, Patch, Suffix}
	Major, Minor, Patch, Suffix = major, minor, patch, suffix
	t.Cleanup(func() { Major, Minor, Patch, Suffix = orig[0], orig[1], orig[2], orig[3] })
}

func TestVersion(t *testing.T) {
	tests := []struct {
		major, minor, patch, suffix string
		want                        string
	}{
		{"0", "1", "0", "dev", "0.1.0-dev"},
		{"1", "2", "3", "", "1.2.3"},
		{"2", "0", "0", "rc.1", "2.0.0-rc.1"},
	}
	for _, tt := range tests {
		withVersion(t, tt.major, tt.minor, tt.patch, tt.suffix)
		if got := Version(); got != tt.want {
			t.Errorf("Version() = %q, want %q", got, tt.want)
		}
	}
}

func TestColoredWithoutColor(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	if Colored() != Version() {
		t.Errorf("Colored() = %q, want %q", Colored(), Version())
	}
}

func TestColoredWithColor(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })

	if Colored() == Version() {
		t.Error("Colored() has no escape sequences with colour on")
	}
}
