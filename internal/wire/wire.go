// Package wire implements the nettest datagram format: a 4-byte big-endian
// sequence header followed by opaque filler, plus the two in-band control
// messages used for the handshake and for termination.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"unicode"
)

// Datagram sizes
const (
	HeaderLen   = 4     // Sequence number header
	MaxDatagram = 65507 // Largest UDP payload over IPv4
)

// Control messages as they are put on the wire.
var (
	InitMessage = []byte("Init\n")
	ExitMessage = []byte("exit\n")
)

var (
	initWord = []byte("Init")
	exitWord = []byte("exit")
)

// ErrMalformedPacket is returned for data datagrams too short to carry a header.
var ErrMalformedPacket = errors.New("malformed packet: shorter than sequence header")

// Kind is the role a received datagram plays in the protocol.
type Kind int

const (
	KindData Kind = iota
	KindInit
	KindExit
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindInit:
		return "init"
	case KindExit:
		return "exit"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// PutSeq writes seq into the header of b. b must be at least HeaderLen long.
func PutSeq(b []byte, seq uint32) {
	binary.BigEndian.PutUint32(b[:HeaderLen], seq)
}

// Seq reads the sequence number from the header of b.
func Seq(b []byte) (uint32, error) {
	if len(b) < HeaderLen {
		return 0, ErrMalformedPacket
	}
	return binary.BigEndian.Uint32(b[:HeaderLen]), nil
}

// trim drops trailing whitespace, so "Init", "Init\n" and "Init\r\n" all match.
func trim(b []byte) []byte {
	return bytes.TrimRightFunc(b, unicode.IsSpace)
}

// IsInit reports whether b is the handshake message.
func IsInit(b []byte) bool {
	return bytes.Equal(trim(b), initWord)
}

// IsExit reports whether b is the termination message.
func IsExit(b []byte) bool {
	return bytes.Equal(trim(b), exitWord)
}

// Classify decides how a received datagram is handled. Control messages are
// checked first; anything else is data, or malformed if it has no header.
func Classify(b []byte) Kind {
	switch {
	case IsExit(b):
		return KindExit
	case IsInit(b):
		return KindInit
	case len(b) < HeaderLen:
		return KindMalformed
	}
	return KindData
}
