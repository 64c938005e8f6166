// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build metadata, overridden at release time with
// -ldflags "-X github.com/papercomputeco/innerself/pkg/utils.Version=...".
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "unknown"
)

// VersionString renders the build metadata on one line.
func VersionString() string {
	return Version + " (" + Sha + ", built " + Buildtime + ")"
}
