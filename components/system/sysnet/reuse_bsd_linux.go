//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sysnet

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseControl allows several sockets, e.g. the system mDNS responder and the
// engine, to bind the same multicast port.
func reuseControl(_, _ string, c syscall.RawConn) error {
	var sockErr error

	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			return
		}

		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}

	return sockErr
}
