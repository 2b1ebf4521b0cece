// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags "-X github.com/scanbill/scanbill/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit, and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String returns a single-line version summary.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
