// Package settings provides build metadata, per-run options and context
// helpers shared by the pageview CLI and its packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "pageview"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the options of a single execution of the CLI.
type Run struct {
	MinLogLevel  int8
	LogFile      string
	ConfigFile   string
	OutputFormat string
	Interactive  bool
	NoColor      bool
}

// NewCliParams returns the defaults for a CLI run: info logging to stderr,
// table output, colors on.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel:  0,
		OutputFormat: "table",
	}
}
