//go:build windows
// +build windows

package transport

import "syscall"

func socketControl(opts Options) func(network, address string, c syscall.RawConn) error {
	return nil
}
