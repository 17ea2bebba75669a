package ssdp

import "sync"

// The operating system name and version are reported once per process in
// the SERVER and USER-AGENT headers of outbound messages.
var (
	hostInfoOnce  sync.Once
	hostOSName    string
	hostOSVersion string
)

// hostOSInfo returns the OS name and version, detecting them on first use.
func hostOSInfo() (string, string) {
	hostInfoOnce.Do(detectHostOS)
	return hostOSName, hostOSVersion
}
