package probe

import "github.com/cbrunnkvist/nettest/internal/report"

// Observer receives per-datagram and per-window events from the probe loops.
// It is called inline from the single loop goroutine.
type Observer interface {
	Sent(n int)
	Received(c Class, n int)
	Window(w report.Window)
}

type nopObserver struct{}

func (nopObserver) Sent(int) {}
func (nopObserver) Received(Class, int) {}
func (nopObserver) Window(report.Window) {}
