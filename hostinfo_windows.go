//go:build windows

package ssdp

import (
	"strconv"

	"golang.org/x/sys/windows"
)

// detectHostOS reports "Windows" and the "<major>.<minor>" OS version.
func detectHostOS() {
	major, minor, _ := windows.RtlGetNtVersionNumbers()
	hostOSName = "Windows"
	hostOSVersion = strconv.Itoa(int(major)) + "." + strconv.Itoa(int(minor))
}
