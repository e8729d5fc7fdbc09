package coherence

import (
	"runtime"

	"github.com/Masterminds/semver"
)

// Version is the current version of the cache-coherence library.
const Version = "v1.1.0"

// VersionInfo provides version information.
type VersionInfo struct {
	Version   string
	Major     int64
	Minor     int64
	Patch     int64
	GoVersion string
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
	}
	if v, err := semver.NewVersion(Version); err == nil {
		info.Major = v.Major()
		info.Minor = v.Minor()
		info.Patch = v.Patch()
	}
	return info
}
