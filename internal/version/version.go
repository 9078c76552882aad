package version

// Version is set at build time via -ldflags "-X .../internal/version.Version=...".
var Version = "dev"

// Full returns the human-readable version string.
func Full() string {
	return "screencastd " + Version
}
