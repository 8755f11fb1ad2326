// Package version holds build metadata, overridden at link time.
package version

var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)
