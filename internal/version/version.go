package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the cosched CLI.
// These variables can be overridden at build time via -ldflags.

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = Colorize("0.3.0") + "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colorize paints the components of a major.minor.patch string. Anything
// that does not split into three parts is returned unchanged.
func Colorize(semver string) string {
	parts := splitSemver(semver)
	if parts == nil {
		return semver
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
}

func splitSemver(s string) []string {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil
	}
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}
