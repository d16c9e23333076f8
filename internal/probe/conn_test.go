package probe

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/cbrunnkvist/nettest/internal/wire"
)

var (
	localAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
	peerAddr  = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1798}
)

var errScriptDone = errors.New("script exhausted")

// scriptedConn is a net.PacketConn that replays a fixed inbox and records
// every write. Reading past the end of the inbox fails with errScriptDone.
type scriptedConn struct {
	mu       sync.Mutex
	inbox    [][]byte
	writes   [][]byte
	writeTo  []net.Addr
	failFrom int // fail writes from this index on (0 = never)
}

func newScriptedConn(inbox ...[]byte) *scriptedConn {
	return &scriptedConn{inbox: inbox}
}

func (c *scriptedConn) ReadFrom(p []byte) (int, net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.inbox) == 0 {
		return 0, nil, errScriptDone
	}
	next := c.inbox[0]
	c.inbox = c.inbox[1:]
	return copy(p, next), peerAddr, nil
}

func (c *scriptedConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := make([]byte, len(p))
	copy(data, p)
	c.writes = append(c.writes, data)
	c.writeTo = append(c.writeTo, addr)
	if c.failFrom > 0 && len(c.writes) >= c.failFrom {
		return 0, errors.New("network is unreachable")
	}
	return len(p), nil
}

func (c *scriptedConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

func (c *scriptedConn) Close() error { return nil }
func (c *scriptedConn) LocalAddr() net.Addr { return localAddr }
func (c *scriptedConn) SetDeadline(t time.Time) error { return nil }
func (c *scriptedConn) SetReadDeadline(t time.Time) error { return nil }
func (c *scriptedConn) SetWriteDeadline(t time.Time) error { return nil }

// data builds a data datagram of length n carrying seq.
func data(seq uint32, n int) []byte {
	b := make([]byte, n)
	wire.PutSeq(b, seq)
	return b
}

// stream builds data datagrams for seqs followed by exit.
func stream(n int, seqs ...uint32) [][]byte {
	var out [][]byte
	for _, s := range seqs {
		out = append(out, data(s, n))
	}
	return append(out, wire.ExitMessage)
}
