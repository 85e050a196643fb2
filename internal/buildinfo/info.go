// Package buildinfo holds version metadata stamped at build time, e.g.
//
//	go build -ldflags "-X github.com/tally-dev/tally/internal/buildinfo.Version=v0.2.0"
package buildinfo

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
