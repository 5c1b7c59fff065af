// Package version holds the build identity of the nsntrace CLI.
package version

import (
	"fmt"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Major, Minor and Patch make up the semantic version.
	Major = "0"
	Minor = "1"
	Patch = "0"

	// Suffix is a pre-release suffix such as "dev"; empty for releases.
	Suffix = "dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Version returns the plain semantic version.
func Version() string {
	v := fmt.Sprintf("%s.%s.%s", Major, Minor, Patch)
	if Suffix != "" {
		v += "-" + Suffix
	}
	return v
}

// Colored returns the version with each component coloured. Colours follow
// color.NoColor, so the result equals Version when colour is off.
func Colored() string {
	v := majorColor.Sprint(Major) + "." + minorColor.Sprint(Minor) + "." + patchColor.Sprint(Patch)
	if Suffix != "" {
		v += "-" + Suffix
	}
	return v
}
