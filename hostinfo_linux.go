//go:build linux

package ssdp

import "golang.org/x/sys/unix"

// detectHostOS reports the kernel name and release, e.g. "Linux/6.8.0".
func detectHostOS() {
	var buf unix.Utsname
	if err := unix.Uname(&buf); err != nil {
		hostOSName = "Linux"
		hostOSVersion = "version"
		return
	}
	hostOSName = unix.ByteSliceToString(buf.Sysname[:])
	hostOSVersion = unix.ByteSliceToString(buf.Release[:])
}
