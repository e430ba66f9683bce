// Package version carries the build metadata of the manager binary.
package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X github.com/TeXLuaCATS/manager/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("manager %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
