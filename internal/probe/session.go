package probe

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Session is an established probe run. It is created when the handshake
// completes, owns the endpoint exclusively, and does not change afterwards.
type Session struct {
	cfg     Config
	conn    net.PacketConn
	peer    net.Addr
	started time.Time
}

// NewSession wraps an already handshaken endpoint. peer is where data and
// the exit message are sent; a receiver may have none.
func NewSession(cfg Config, conn net.PacketConn, peer net.Addr) *Session {
	return &Session{
		cfg:     cfg,
		conn:    conn,
		peer:    peer,
		started: time.Now(),
	}
}

// Establish runs the handshake for cfg.Role on conn and returns the Session.
// A HandshakeTimeout in cfg bounds the wait; without it a silent peer blocks
// until ctx is cancelled.
func Establish(ctx context.Context, conn net.PacketConn, cfg Config, peer net.Addr, log logrus.FieldLogger) (*Session, error) {
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, cfg.HandshakeTimeout, ErrHandshakeTimeout)
		defer cancel()
	}

	if cfg.Role == RoleSender {
		if _, err := AwaitEcho(ctx, conn, peer, log); err != nil {
			return nil, err
		}
		return NewSession(cfg, conn, peer), nil
	}

	if _, err := AwaitInit(ctx, conn, peer, log); err != nil {
		return nil, err
	}
	return NewSession(cfg, conn, peer), nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Role returns the session role.
func (s *Session) Role() Role { return s.cfg.Role }

// LocalAddr returns the bound endpoint address.
func (s *Session) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// PeerAddr returns the peer, or nil for a receiver without a configured target.
func (s *Session) PeerAddr() net.Addr { return s.peer }

// Started returns the handshake completion time.
func (s *Session) Started() time.Time { return s.started }
