// Package version holds build metadata injected via -ldflags.
package version

// Build metadata.
var (
	Version = "dev"
	Commit  = "none"
)
