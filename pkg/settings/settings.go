// Package settings provides build metadata, runtime configuration, and
// context helpers used across the kvbrowse CLI, server and browser.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvbrowse"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the settings of a single invocation: logging, output and
// whether the session is interactive.
type Run struct {
	MinLogLevel int8
	ConfigFile  string
	Output      string
	NoColor     bool
	Interactive bool
}

// NewCliParams returns the defaults for a CLI invocation.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      "table",
	}
}
