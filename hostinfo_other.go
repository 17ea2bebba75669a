//go:build !linux && !windows

package ssdp

import "runtime"

// detectHostOS reports the platform family name without a version; the
// version string is a fixed placeholder on these platforms.
func detectHostOS() {
	hostOSName = runtime.GOOS
	hostOSVersion = "version"
}
