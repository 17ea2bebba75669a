//go:build windows

package ssdp

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// reuseAddr configures a socket about to be bound so that several SSDP
// participants on the same host can share the SSDP port.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
