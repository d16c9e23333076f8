package main

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Preset is a named sender configuration. Explicit flags override it.
type Preset struct {
	Description  string
	PacketLength int
	Duration     time.Duration
	Count        uint64
	Rate         float64 // Packets per second (0 = unlimited)
	Burst        int
}

// presets defines common test shapes.
var presets = map[string]Preset{
	// Small datagrams at a gentle rate, the classic embedded NIC run
	"thesis": {
		Description:  "64 B at 90 pps for 20s",
		PacketLength: 64,
		Rate:         90,
		Duration:     20 * time.Second,
	},

	// Near-MTU datagrams
	"paced": {
		Description:  "1200 B at 100 pps for 10s",
		PacketLength: 1200,
		Rate:         100,
		Duration:     10 * time.Second,
	},
	"bulk": {
		Description:  "10000 x 1200 B, unlimited rate",
		PacketLength: 1200,
		Count:        10000,
	},
	"bursty": {
		Description:  "1200 B at 1000 pps in bursts of 50 for 10s",
		PacketLength: 1200,
		Rate:         1000,
		Burst:        50,
		Duration:     10 * time.Second,
	},

	// Size extremes
	"tiny": {
		Description:  "header-only datagrams, unlimited rate, 10s",
		PacketLength: 4,
		Duration:     10 * time.Second,
	},
	"jumbo": {
		Description:  "8972 B (9000 MTU) at 500 pps for 10s",
		PacketLength: 8972,
		Rate:         500,
		Duration:     10 * time.Second,
	},
}

// printPresets lists the presets in name order.
func printPresets(w io.Writer) {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, presets[name].Description)
	}
}
