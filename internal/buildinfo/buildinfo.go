// Package buildinfo carries the version stamped in with -ldflags "-X".
package buildinfo

import "fmt"

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for UI/logging.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String is the full build line printed at startup.
func String() string {
	return fmt.Sprintf("minemap %s (commit %s, built %s)", Version, Commit, Date)
}
