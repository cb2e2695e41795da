// Package cmd holds the build metadata of the plugkit binary.
package cmd

import "runtime/debug"

// Set via -ldflags "-X github.com/thoreinstein/plugkit/cmd.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Resolved returns Version, or the module version recorded by go install
// when the binary was built without ldflags.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}
