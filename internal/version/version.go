package version

import "fmt"

var (
	// Version is the profilecharts release, set with -ldflags at build time.
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for the version subcommand.
func String() string {
	return fmt.Sprintf("profilecharts %s (%s, built %s)", Version, GitSHA, BuildTime)
}
