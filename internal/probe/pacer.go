package probe

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out sends to a packets-per-second rate.
//
// Two modes are supported:
//   - Scheduled (default): an ideal send schedule advanced by one interval per
//     send. When the sender falls behind, the schedule snaps to now instead of
//     bursting to catch up, so a stall never builds a backlog.
//   - Token bucket (Burst > 0): x/time/rate limiter, allowing bursts of up to
//     Burst packets. The bucket size bounds the backlog the same way.
type Pacer struct {
	interval time.Duration
	next     time.Time
	limiter  *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer for pps packets per second. pps <= 0 disables
// pacing; a nil *Pacer never waits.
func NewPacer(pps float64, burst int) *Pacer {
	if pps <= 0 {
		return nil
	}
	p := &Pacer{
		interval: time.Duration(float64(time.Second) / pps),
		now:      time.Now,
		sleep:    sleepContext,
	}
	if burst > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(pps), burst)
	}
	return p
}

// Interval is the ideal spacing between two sends.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Start anchors the schedule at t, the time of the first send.
func (p *Pacer) Start(t time.Time) {
	if p == nil {
		return
	}
	p.next = t
}

// Wait blocks before the next send. Call it once before every send; in
// scheduled mode the first call after Start returns immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.limiter != nil {
		return p.limiter.Wait(ctx)
	}

	sleepFor := p.next.Sub(p.now())
	if sleepFor > 0 {
		if err := p.sleep(ctx, sleepFor); err != nil {
			return err
		}
	} else if sleepFor < 0 {
		// Behind schedule: snap to now, no catch-up burst.
		p.next = p.now()
	}
	p.next = p.next.Add(p.interval)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
