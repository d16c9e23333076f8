//go:build !windows
// +build !windows

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socketControl sets the socket options before bind. Buffer sizes are hints:
// the kernel clamps them to its configured maximum, so failures are ignored.
func socketControl(opts Options) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if sockErr != nil {
				return
			}
			unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, opts.ReceiveBuffer)
			unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, opts.SendBuffer)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
