//go:build ignore

// verify_pacer drives the Pacer directly, without sockets, and checks the
// achieved packet rate for both pacing modes.
//
// Usage: go run cmd/verify_pacer/main.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cbrunnkvist/nettest/internal/probe"
)

func main() {
	fmt.Println("=== nettest Pacer Verification ===")
	fmt.Println()

	verifyRate("scheduled", 90, 0, 2*time.Second)
	verifyRate("scheduled", 1000, 0, 2*time.Second)
	verifyRate("token bucket", 1000, 50, 2*time.Second)
}

func verifyRate(mode string, pps float64, burst int, d time.Duration) {
	fmt.Printf("%s: target %.0f pps for %v\n", mode, pps, d)

	p := probe.NewPacer(pps, burst)
	ctx := context.Background()
	start := time.Now()
	p.Start(start)

	n := 0
	for time.Since(start) < d {
		if err := p.Wait(ctx); err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			return
		}
		n++
	}
	got := float64(n) / time.Since(start).Seconds()

	fmt.Printf("   Sent %d in %v\n", n, time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Rate: %.2f pps (expected ±10%%: %.0f-%.0f)\n", got, pps*0.9, pps*1.1)
	if got >= pps*0.9 && got <= pps*1.1 {
		fmt.Println("   ✓ PASS")
	} else {
		fmt.Println("   ✗ FAIL - rate outside expected range")
	}
	fmt.Println()
}
