// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/kwharvest/internal/version.Version=v1.2.0
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build for --version output and the startup log.
func String() string {
	return Version + " (" + Commit + ", built " + Date + ")"
}
