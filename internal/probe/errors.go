package probe

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an invalid Config. It is reported before any
	// socket is opened.
	ErrConfiguration = errors.New("configuration error")

	// ErrHandshakeTimeout is returned when a bounded handshake saw no Init.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport error")
)

// TransportError is a send or receive failure on the session endpoint.
type TransportError struct {
	Op  string // "send" or "receive"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
