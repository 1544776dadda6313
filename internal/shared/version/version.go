// Package version holds build metadata injected with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the version line printed by `archcheck version`.
func String() string {
	return "archcheck " + Version + " (" + Commit + ", " + Date + ")"
}
