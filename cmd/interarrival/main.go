// interarrival answers a nettest sender's handshake and measures the gaps
// between arriving data datagrams, to check pacing from the wire side.
// Usage: go run ./cmd/interarrival :1797 &
//
//	nettest -m sender --pps 100 -c 500 :0 127.0.0.1:1797
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cbrunnkvist/nettest/internal/probe"
	"github.com/cbrunnkvist/nettest/internal/transport"
	"github.com/cbrunnkvist/nettest/internal/wire"
	"github.com/sirupsen/logrus"
)

// gapStats accumulates inter-arrival gaps.
type gapStats struct {
	count    int
	sum      time.Duration
	min, max time.Duration
}

func (s *gapStats) add(d time.Duration) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.sum += d
	s.count++
}

func (s *gapStats) String() string {
	if s.count == 0 {
		return "Count: 0"
	}
	avg := s.sum / time.Duration(s.count)
	return fmt.Sprintf("Count: %d | Min: %v | Max: %v | Avg: %v", s.count, s.min, s.max, avg)
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: interarrival <local-addr>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logrus.New()
	log.SetOutput(os.Stderr)

	conn, err := transport.Listen(ctx, os.Args[1], transport.Options{})
	if err != nil {
		log.WithError(err).Fatal("listen failed")
	}
	defer conn.Close()

	if _, err := probe.AwaitInit(ctx, conn, nil, log); err != nil {
		log.WithError(err).Fatal("handshake failed")
	}

	var stats gapStats
	var prev time.Time
	buf := make([]byte, wire.MaxDatagram)
	for {
		n, _, err := transport.ReadFrom(ctx, conn, buf, 0)
		if err != nil {
			break
		}
		kind := wire.Classify(buf[:n])
		if kind == wire.KindExit {
			break
		}
		if kind != wire.KindData {
			continue
		}
		// First datagram primes the clock
		now := time.Now()
		if !prev.IsZero() {
			stats.add(now.Sub(prev))
		}
		prev = now
	}

	fmt.Println(stats.String())
}
