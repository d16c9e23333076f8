package probe

import (
	"context"
	"errors"
	"net"

	"github.com/cbrunnkvist/nettest/internal/transport"
	"github.com/cbrunnkvist/nettest/internal/wire"
	"github.com/sirupsen/logrus"
)

const handshakeBufferSize = 1500

// AwaitEcho is the sender side of the handshake. It sends Init to peer and
// blocks until an Init arrives from any source. Other datagrams are ignored.
// It returns the address the echo came from.
func AwaitEcho(ctx context.Context, conn net.PacketConn, peer net.Addr, log logrus.FieldLogger) (net.Addr, error) {
	log.Infof("sending Init to %v", peer)
	if _, err := conn.WriteTo(wire.InitMessage, peer); err != nil {
		return nil, &TransportError{Op: "send", Err: err}
	}

	from, err := awaitInit(ctx, conn, log)
	if err != nil {
		return nil, err
	}
	log.Infof("handshake OK (%v echoed Init)", from)
	return from, nil
}

// AwaitInit is the receiver side of the handshake. It blocks until an Init
// arrives, then echoes Init to target, or back to the source when target is
// nil. It returns the address the Init came from.
func AwaitInit(ctx context.Context, conn net.PacketConn, target net.Addr, log logrus.FieldLogger) (net.Addr, error) {
	log.Info("waiting for Init")

	from, err := awaitInit(ctx, conn, log)
	if err != nil {
		return nil, err
	}
	log.Infof("received Init request from %v", from)

	if target == nil {
		target = from
	}
	if _, err := conn.WriteTo(wire.InitMessage, target); err != nil {
		return nil, &TransportError{Op: "send", Err: err}
	}
	log.Debugf("echoed Init to %v", target)
	return from, nil
}

func awaitInit(ctx context.Context, conn net.PacketConn, log logrus.FieldLogger) (net.Addr, error) {
	buf := make([]byte, handshakeBufferSize)
	for {
		n, from, err := transport.ReadFrom(ctx, conn, buf, 0)
		if err != nil {
			return nil, handshakeError(ctx, err)
		}
		if wire.IsInit(buf[:n]) {
			return from, nil
		}
		log.Debugf("ignoring %d byte datagram from %v during handshake", n, from)
	}
}

// handshakeError tells the handshake deadline set by Establish apart from
// cancellation of the caller's context.
func handshakeError(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrHandshakeTimeout) {
		return ErrHandshakeTimeout
	}
	if errors.Is(err, transport.ErrCancelled) {
		return err
	}
	return &TransportError{Op: "receive", Err: err}
}
