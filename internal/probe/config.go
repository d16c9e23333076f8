// Package probe implements the two nettest roles: a rate-controlled Sender
// and a streaming Receiver, joined by an in-band Init/echo handshake.
package probe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cbrunnkvist/nettest/internal/wire"
)

// Role is the side of the probe a process plays.
type Role int

const (
	RoleReceiver Role = iota
	RoleSender
)

func (r Role) String() string {
	if r == RoleSender {
		return "sender"
	}
	return "receiver"
}

// ParseRole accepts the role names and the numeric modes of the original
// tool (0 = server/receiver, 1 = client/sender).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receiver", "server", "recv", "0":
		return RoleReceiver, nil
	case "sender", "client", "send", "1":
		return RoleSender, nil
	}
	return RoleReceiver, configErrorf("unknown mode: %s", s)
}

// Defaults
const (
	DefaultPacketLength = 1024
	DefaultDuration     = 20 * time.Second
)

// Config is the validated session configuration handed over by the CLI.
type Config struct {
	Role  Role
	Local string // host:port to bind
	Peer  string // host:port of the other side; receiver: echo target, "" or "-" = observed source

	PacketLength int           // Total datagram length, header included
	Duration     time.Duration // Stop after this long (sender)
	Count        uint64        // Or stop after this many packets (sender)

	Rate          float64 // Packets per second (0 = unlimited)
	Burst         int     // Token bucket burst (0 = scheduled pacing)
	RandomPayload bool    // Fill payload with random bytes instead of zeros
	Seed          int64   // Random seed for payload (0 = use current time)

	HandshakeTimeout time.Duration // 0 = wait forever
	IdleTimeout      time.Duration // Receiver: end reception after this much silence (0 = never)
	TOS              int           // IP TOS / traffic class byte
}

// Validate checks c and fills defaults. Errors wrap ErrConfiguration.
func (c *Config) Validate() error {
	if c.Local == "" {
		return configErrorf("local address is required")
	}
	if c.Role == RoleSender && (c.Peer == "" || c.Peer == "-") {
		return configErrorf("sender requires a peer address")
	}

	if c.PacketLength == 0 {
		c.PacketLength = DefaultPacketLength
	}
	if c.PacketLength < wire.HeaderLen {
		return configErrorf("packet length %d is shorter than the %d byte header", c.PacketLength, wire.HeaderLen)
	}
	if c.PacketLength > wire.MaxDatagram {
		return configErrorf("packet length %d exceeds %d", c.PacketLength, wire.MaxDatagram)
	}

	if c.Duration < 0 {
		return configErrorf("negative duration %v", c.Duration)
	}
	if c.Count > math.MaxUint32 {
		return configErrorf("count %d exceeds the %d sequence numbers available", c.Count, uint64(math.MaxUint32))
	}
	if c.Duration > 0 && c.Count > 0 {
		return configErrorf("duration and count are mutually exclusive")
	}
	if c.Duration == 0 && c.Count == 0 {
		c.Duration = DefaultDuration
	}

	if c.Rate < 0 {
		return configErrorf("negative rate %v", c.Rate)
	}
	if c.Burst < 0 {
		return configErrorf("negative burst %d", c.Burst)
	}
	if c.Burst > 0 && c.Rate == 0 {
		return configErrorf("burst requires a rate")
	}

	if c.HandshakeTimeout < 0 || c.IdleTimeout < 0 {
		return configErrorf("timeouts must not be negative")
	}
	if c.TOS < 0 || c.TOS > 255 {
		return configErrorf("tos %d out of range [0,255]", c.TOS)
	}
	return nil
}

// StopCondition describes when the sender ends its run.
func (c *Config) StopCondition() string {
	if c.Count > 0 {
		return fmt.Sprintf("%d packets", c.Count)
	}
	return c.Duration.String()
}
