package version

import "github.com/fatih/color"

// Version information for the sprout CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgGreen, color.Bold)
	versionColor = color.New(color.FgYellow, color.Bold)
	detailColor  = color.New(color.Faint)
)

// Banner renders the one-line version banner. Colors follow fatih/color's
// global switch, see color.NoColor.
func Banner() string {
	out := nameColor.Sprint("sprout") + " " + versionColor.Sprint(Version)
	if GitCommit != "" {
		out += detailColor.Sprintf(" (%s)", GitCommit)
	}
	if BuildDate != "" {
		out += detailColor.Sprintf(" built %s", BuildDate)
	}
	return out
}
