// Package version holds build information, set with -ldflags -X at build time.
package version

var (
	// Version is the release version, e.g. v0.1.0.
	Version = "v0.0.0-dev"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
)
