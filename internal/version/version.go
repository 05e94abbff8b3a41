// Package version holds build information injected with -ldflags -X.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for -version and the debug pages.
func String() string {
	return fmt.Sprintf("touchbridge %s (%s, built %s)", Version, GitSHA, BuildTime)
}
