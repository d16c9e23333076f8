// Package transport opens the UDP endpoint a nettest role owns for the
// lifetime of a session and provides a cancellation-aware read on it.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Socket buffer defaults
const (
	defaultReceiveBuffer = 4 << 20 // Receiver side bursts at line rate
	defaultSendBuffer    = 1 << 20
)

var (
	// ErrCancelled is returned when the context ended while a read was pending.
	ErrCancelled = errors.New("read cancelled")
	// ErrIdle is returned when no datagram arrived within the idle timeout.
	ErrIdle = errors.New("idle timeout")
)

// Options tunes the endpoint. Zero values pick the defaults.
type Options struct {
	ReceiveBuffer int // SO_RCVBUF in bytes
	SendBuffer    int // SO_SNDBUF in bytes
	TOS           int // IPv4 TOS / IPv6 traffic class, 0 leaves the OS default
}

// Listen binds a UDP endpoint on addr.
func Listen(ctx context.Context, addr string, opts Options) (net.PacketConn, error) {
	if opts.ReceiveBuffer == 0 {
		opts.ReceiveBuffer = defaultReceiveBuffer
	}
	if opts.SendBuffer == 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	lc := net.ListenConfig{Control: socketControl(opts)}
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}

	if opts.TOS != 0 {
		if err := setTOS(conn, opts.TOS); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set tos %d: %w", opts.TOS, err)
		}
	}
	return conn, nil
}

// setTOS marks outgoing datagrams with the given TOS byte, picking the IPv4 or
// IPv6 socket option from the bound address.
func setTOS(conn net.PacketConn, tos int) error {
	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if ok && udpAddr.IP.To4() == nil && udpAddr.IP != nil && !udpAddr.IP.IsUnspecified() {
		return ipv6.NewPacketConn(conn).SetTrafficClass(tos)
	}
	return ipv4.NewPacketConn(conn).SetTOS(tos)
}

// ResolvePeer resolves a peer address. An empty string or "-" means no
// pre-configured peer and returns nil.
func ResolvePeer(addr string) (net.Addr, error) {
	if addr == "" || addr == "-" {
		return nil, nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	return udpAddr, nil
}

// ReadFrom reads one datagram. It blocks until a datagram arrives, the idle
// timeout expires (when idle > 0), or ctx is done. A cancelled context yields
// ErrCancelled wrapping the context error.
func ReadFrom(ctx context.Context, conn net.PacketConn, buf []byte, idle time.Duration) (int, net.Addr, error) {
	var deadline time.Time
	if idle > 0 {
		deadline = time.Now().Add(idle)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return 0, nil, err
	}

	// Unblock the pending read as soon as ctx is done.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, addr, err := conn.ReadFrom(buf)
	if err == nil {
		return n, addr, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return n, addr, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	var netErr net.Error
	if idle > 0 && errors.As(err, &netErr) && netErr.Timeout() {
		return n, addr, ErrIdle
	}
	return n, addr, err
}
