// Package report buckets throughput into one-second windows and renders the
// per-second lines and final summaries nettest prints.
package report

import "time"

// WindowLength is the width of one throughput bucket.
const WindowLength = time.Second

// Window is one closed throughput bucket, covering [Index, Index+1) seconds.
type Window struct {
	Index int
	Bytes uint64
}

// KBps returns the window throughput in KB/s (k=1000).
func (w Window) KBps() float64 {
	return float64(w.Bytes) / 1000
}

// Totals is what an Aggregator accumulated over a run.
type Totals struct {
	Windows int    // Windows closed before the final flush
	Bytes   uint64 // All bytes, including the final partial window
}

// AverageKBps divides total bytes by Windows+1, counting the final partial
// window as a whole second.
func (t Totals) AverageKBps() float64 {
	return float64(t.Bytes) / float64(t.Windows+1) / 1000
}

// Aggregator accumulates bytes into fixed wall-clock windows independent of
// the arrival rate. It keeps only the open window, so memory is constant.
//
// The deadline advances by exactly one WindowLength per observation that
// crosses it. After a multi-second gap the skipped windows are not emitted
// retroactively; the deadline catches up one window per datagram.
type Aggregator struct {
	emit     func(Window)
	started  bool
	deadline time.Time
	index    int
	bytes    uint64
	total    uint64
}

// NewAggregator creates an Aggregator that calls emit for every closed window.
func NewAggregator(emit func(Window)) *Aggregator {
	if emit == nil {
		emit = func(Window) {}
	}
	return &Aggregator{emit: emit}
}

// Start opens the first window at t.
func (a *Aggregator) Start(t time.Time) {
	a.started = true
	a.deadline = t.Add(WindowLength)
	a.index = 0
	a.bytes = 0
	a.total = 0
}

// Started reports whether Start has been called.
func (a *Aggregator) Started() bool {
	return a.started
}

// Add accounts n bytes observed at now, closing the open window first if
// its deadline has passed. The bytes of the observation that crosses the
// deadline belong to the window being closed.
func (a *Aggregator) Add(now time.Time, n int) {
	if !a.started {
		a.Start(now)
	}
	a.bytes += uint64(n)

	if !now.Before(a.deadline) {
		a.emit(Window{Index: a.index, Bytes: a.bytes})
		a.total += a.bytes
		a.bytes = 0
		a.index++
		a.deadline = a.deadline.Add(WindowLength)
	}
}

// Flush emits the final, possibly partial, window and returns the totals.
// An Aggregator that never started emits nothing.
func (a *Aggregator) Flush() Totals {
	if !a.started {
		return Totals{}
	}
	a.emit(Window{Index: a.index, Bytes: a.bytes})
	return Totals{
		Windows: a.index,
		Bytes:   a.total + a.bytes,
	}
}
