// Package version holds build metadata.
package version

// Overridden via -ldflags at release build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
