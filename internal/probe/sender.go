package probe

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/cbrunnkvist/nettest/internal/transport"
	"github.com/cbrunnkvist/nettest/internal/wire"
)

// Summary reasons
const (
	reasonSendDone        = "exit: End sending"
	reasonSendInterrupted = "Interrupted: End sending"
	reasonSendError       = "Send error: End sending"
)

// Sender floods the session peer with sequence-numbered datagrams until its
// stop condition is reached, then notifies the peer with exit.
type Sender struct {
	sess  *Session
	opts  Options
	pacer *Pacer
	rng   *rand.Rand
	buf   []byte
}

// NewSender prepares a Sender for sess. Packet lengths below the header size
// are clamped to it.
func NewSender(sess *Session, opts Options) *Sender {
	cfg := sess.cfg

	length := cfg.PacketLength
	if length < wire.HeaderLen {
		length = wire.HeaderLen
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Sender{
		sess:  sess,
		opts:  opts.withDefaults(),
		pacer: NewPacer(cfg.Rate, cfg.Burst),
		rng:   rand.New(rand.NewSource(seed)),
		buf:   make([]byte, length),
	}
}

// Run sends until the stop condition, ctx cancellation or a send error. The
// exit notification and the summary are emitted in every case. A send error
// is returned as *TransportError, cancellation wraps transport.ErrCancelled.
func (s *Sender) Run(ctx context.Context) (report.SenderSummary, error) {
	log := s.opts.Logger
	rep := s.opts.Reporter
	peer := s.sess.peer

	agg := report.NewAggregator(func(w report.Window) {
		rep.Interval(w)
		s.opts.Observer.Window(w)
	})

	log.Infof("sending %d byte packets to %v for %s", len(s.buf), peer, s.sess.cfg.StopCondition())

	start := time.Now()
	agg.Start(start)
	s.pacer.Start(start)

	var (
		seq    uint32
		sent   uint64
		bytes  uint64
		reason = reasonSendDone
		runErr error
	)

	// Pacing never sleeps past the end of a duration run
	waitCtx := ctx
	if s.sess.cfg.Count == 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithDeadline(ctx, start.Add(s.sess.cfg.Duration))
		defer cancel()
	}

	for !s.done(start, sent) {
		if err := ctx.Err(); err != nil {
			reason, runErr = reasonSendInterrupted, fmt.Errorf("%w: %w", transport.ErrCancelled, err)
			break
		}
		if err := s.pacer.Wait(waitCtx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				reason, runErr = reasonSendInterrupted, fmt.Errorf("%w: %w", transport.ErrCancelled, ctxErr)
			}
			break
		}
		if s.done(start, sent) {
			break
		}

		seq++
		s.fill(seq)
		n, err := s.sess.conn.WriteTo(s.buf, peer)
		if err != nil {
			reason, runErr = reasonSendError, &TransportError{Op: "send", Err: err}
			log.WithError(err).Errorf("send of packet %d failed", seq)
			break
		}

		sent++
		bytes += uint64(n)
		agg.Add(time.Now(), n)
		s.opts.Observer.Sent(n)
	}

	s.notifyExit()

	summary := report.SenderSummary{
		Reason:  reason,
		Packets: sent,
		Bytes:   bytes,
		Elapsed: time.Since(start),
		Totals:  agg.Flush(),
	}
	rep.Sender(summary)
	return summary, runErr
}

// done checks the stop condition: count when set, duration otherwise. A run
// also ends when the sequence space is exhausted.
func (s *Sender) done(start time.Time, sent uint64) bool {
	cfg := s.sess.cfg
	if sent >= math.MaxUint32 {
		return true
	}
	if cfg.Count > 0 {
		return sent >= cfg.Count
	}
	return time.Since(start) >= cfg.Duration
}

// fill writes seq into the header and refreshes random filler if enabled.
func (s *Sender) fill(seq uint32) {
	if s.sess.cfg.RandomPayload {
		s.rng.Read(s.buf[wire.HeaderLen:])
	}
	wire.PutSeq(s.buf, seq)
}

// notifyExit tells the peer to stop. Delivery is best effort: the datagram
// may be lost and a send failure does not change the outcome of the run.
func (s *Sender) notifyExit() {
	if _, err := s.sess.conn.WriteTo(wire.ExitMessage, s.sess.peer); err != nil {
		s.opts.Logger.WithError(err).Debug("exit notification failed")
		return
	}
	s.opts.Logger.Debug("sent exit")
}
