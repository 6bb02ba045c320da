// Package version records build metadata stamped in via -ldflags.
package version

var (
	// Version is the release version, "dev" for unstamped builds.
	Version = "dev"

	// Commit is the git revision the binary was built from.
	Commit = ""
)

// String renders the version with the commit when one was recorded.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
