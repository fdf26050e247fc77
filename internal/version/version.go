// Package version holds the build fingerprint of the forscape CLI.
package version

import "github.com/fatih/color"

// These variables can be overridden at build time via -ldflags.
var (
	Major  = "0"
	Minor  = "1"
	Patch  = "0"
	Suffix = "-dev"

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

// String returns the plain semantic version.
func String() string {
	return Major + "." + Minor + "." + Patch + Suffix
}

// Colored renders the version with one color per component. It honours
// color.NoColor like every other colored output.
func Colored() string {
	return majorColor.Sprint(Major) + "." + minorColor.Sprint(Minor) + "." + patchColor.Sprint(Patch) + Suffix
}
