package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/cbrunnkvist/nettest/internal/wire"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func readOne(t *testing.T, conn net.PacketConn) ([]byte, net.Addr) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, from, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read on %v: %v", conn.LocalAddr(), err)
	}
	return buf[:n], from
}

func sameAddr(a, b net.Addr) bool {
	return a != nil && b != nil && a.String() == b.String()
}

func TestAwaitEchoAcceptsInitFromAnySource(t *testing.T) {
	sender := listenUDP(t)
	receiver := listenUDP(t)
	other := listenUDP(t)

	type result struct {
		from net.Addr
		err  error
	}
	done := make(chan result, 1)
	go func() {
		from, err := AwaitEcho(context.Background(), sender, receiver.LocalAddr(), quietLogger())
		done <- result{from, err}
	}()

	msg, from := readOne(t, receiver)
	if !wire.IsInit(msg) {
		t.Fatalf("receiver got %q, want Init", msg)
	}

	// Noise does not complete the handshake
	receiver.WriteTo([]byte("hello"), from)
	select {
	case r := <-done:
		t.Fatalf("handshake completed on noise: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}

	// An Init with trailing whitespace from an unrelated socket does
	other.WriteTo([]byte("Init \r\n"), from)
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("AwaitEcho: %v", r.err)
		}
		if !sameAddr(r.from, other.LocalAddr()) {
			t.Errorf("echo from %v, want %v", r.from, other.LocalAddr())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitEcho did not return")
	}
}

func TestAwaitInitEchoesToSource(t *testing.T) {
	receiver := listenUDP(t)
	sender := listenUDP(t)

	sender.WriteTo(wire.InitMessage, receiver.LocalAddr())
	from, err := AwaitInit(context.Background(), receiver, nil, quietLogger())
	if err != nil {
		t.Fatalf("AwaitInit: %v", err)
	}
	if !sameAddr(from, sender.LocalAddr()) {
		t.Errorf("Init from %v, want %v", from, sender.LocalAddr())
	}

	msg, _ := readOne(t, sender)
	if !wire.IsInit(msg) {
		t.Errorf("source got %q, want Init echo", msg)
	}
}

func TestAwaitInitEchoesToTarget(t *testing.T) {
	receiver := listenUDP(t)
	sender := listenUDP(t)
	target := listenUDP(t)

	sender.WriteTo([]byte("warmup"), receiver.LocalAddr())
	sender.WriteTo(wire.InitMessage, receiver.LocalAddr())
	if _, err := AwaitInit(context.Background(), receiver, target.LocalAddr(), quietLogger()); err != nil {
		t.Fatalf("AwaitInit: %v", err)
	}

	msg, _ := readOne(t, target)
	if !wire.IsInit(msg) {
		t.Errorf("target got %q, want Init echo", msg)
	}
}

func TestEstablishHandshakeTimeout(t *testing.T) {
	conn := listenUDP(t)
	cfg := Config{Role: RoleReceiver, HandshakeTimeout: 50 * time.Millisecond}

	start := time.Now()
	_, err := Establish(context.Background(), conn, cfg, nil, quietLogger())
	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("got %v, want ErrHandshakeTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestEstablishBothRoles(t *testing.T) {
	a := listenUDP(t)
	b := listenUDP(t)

	rxDone := make(chan error, 1)
	go func() {
		sess, err := Establish(context.Background(), b, Config{Role: RoleReceiver}, nil, quietLogger())
		if err == nil && sess.PeerAddr() != nil {
			err = errors.New("receiver without target must have no peer")
		}
		rxDone <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, err := Establish(ctx, a, Config{Role: RoleSender}, b.LocalAddr(), quietLogger())
	if err != nil {
		t.Fatalf("sender Establish: %v", err)
	}
	if sess.Role() != RoleSender || !sameAddr(sess.PeerAddr(), b.LocalAddr()) {
		t.Errorf("got role %v peer %v", sess.Role(), sess.PeerAddr())
	}
	if err := <-rxDone; err != nil {
		t.Fatalf("receiver Establish: %v", err)
	}
}
