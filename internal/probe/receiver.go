package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/cbrunnkvist/nettest/internal/transport"
	"github.com/cbrunnkvist/nettest/internal/wire"
)

// Summary reasons
const (
	reasonRecvExit        = "Received exit: End reception"
	reasonRecvIdle        = "Idle timeout: End reception"
	reasonRecvInterrupted = "Interrupted: End reception"
	reasonRecvError       = "Receive error: End reception"
)

// Receiver ingests the data stream of a session, classifies every datagram
// and aggregates per-second throughput until it sees exit.
type Receiver struct {
	sess    *Session
	opts    Options
	tracker SequenceTracker
	buf     []byte
}

// NewReceiver prepares a Receiver for sess.
func NewReceiver(sess *Session, opts Options) *Receiver {
	return &Receiver{
		sess: sess,
		opts: opts.withDefaults(),
		buf:  make([]byte, wire.MaxDatagram),
	}
}

// Tracker returns a copy of the classification counters.
func (r *Receiver) Tracker() SequenceTracker {
	return r.tracker
}

// Run receives until exit, the idle timeout, ctx cancellation or a receive
// error, and emits the summary in every case. An idle timeout ends the run
// normally; a receive error is returned as *TransportError and cancellation
// wraps transport.ErrCancelled.
func (r *Receiver) Run(ctx context.Context) (report.ReceiverSummary, error) {
	rep := r.opts.Reporter
	obs := r.opts.Observer
	idle := r.sess.cfg.IdleTimeout

	agg := report.NewAggregator(func(w report.Window) {
		rep.Interval(w)
		obs.Window(w)
	})

	reason := reasonRecvExit
	var runErr error

loop:
	for {
		n, from, err := transport.ReadFrom(ctx, r.sess.conn, r.buf, idle)
		if err != nil {
			switch {
			case errors.Is(err, transport.ErrIdle):
				reason = reasonRecvIdle
				r.opts.Logger.Infof("no datagram for %v, ending reception", idle)
			case errors.Is(err, transport.ErrCancelled):
				reason, runErr = reasonRecvInterrupted, err
			default:
				reason, runErr = reasonRecvError, &TransportError{Op: "receive", Err: err}
				r.opts.Logger.WithError(err).Error("receive failed")
			}
			break loop
		}
		now := time.Now()
		datagram := r.buf[:n]

		switch wire.Classify(datagram) {
		case wire.KindExit:
			r.opts.Logger.Debugf("received exit from %v", from)
			break loop
		case wire.KindInit:
			r.opts.Logger.Debugf("ignoring Init from %v after handshake", from)
			continue
		}

		if !agg.Started() {
			agg.Start(now)
			rep.Start(now)
			r.opts.Logger.Infof("first packet from %v", from)
		}

		class := r.tracker.Observe(datagram)
		if class == ClassMalformed {
			r.reportMalformed(n, from)
		}
		agg.Add(now, n)
		obs.Received(class, n)
	}

	summary := report.ReceiverSummary{
		Reason:     reason,
		Packets:    r.tracker.Received,
		Totals:     agg.Flush(),
		OutOfOrder: r.tracker.OutOfOrder,
		Duplicates: r.tracker.Duplicates,
		Malformed:  r.tracker.Malformed,
	}
	rep.Receiver(summary)
	return summary, runErr
}

// reportMalformed logs the first malformed datagram as a warning and the
// rest at debug level so a broken peer cannot flood the log.
func (r *Receiver) reportMalformed(n int, from net.Addr) {
	entry := r.opts.Logger.WithError(wire.ErrMalformedPacket).WithField("length", n)
	if r.tracker.Malformed == 1 {
		entry.Warnf("datagram from %v excluded from sequence tracking", from)
		return
	}
	entry.Debugf("datagram from %v excluded from sequence tracking", from)
}
