// Package buildinfo carries the version stamped into the finboard binary.
package buildinfo

// Set with -ldflags "-X github.com/llazzari/personal-finance/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
