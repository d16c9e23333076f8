package report

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
)

// Both per-second line shapes. Group 2 is the right-hand bound, group 3 KB/s.
var (
	plainLine   = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*:\s*([0-9.]+)\s*KB/s\s*$`)
	bracketLine = regexp.MustCompile(`^\s*\[\s*(\d+)\s*-\s*(\d+)\s*\]\s*:\s*\[\s*([0-9.]+)\s*KB/s\s*\]\s*$`)
)

// Point is the throughput of the window ending at Second.
type Point struct {
	Second int
	KBps   float64
}

// ParseIntervals extracts per-second points from report text. Lines that do
// not match either shape are ignored. When a second appears more than once
// the later value wins. Points are returned sorted by second.
func ParseIntervals(r io.Reader) ([]Point, error) {
	latest := map[int]float64{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sec, kbps, ok := parseIntervalLine(scanner.Text())
		if ok {
			latest[sec] = kbps
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(latest))
	for sec, kbps := range latest {
		points = append(points, Point{Second: sec, KBps: kbps})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Second < points[j].Second })
	return points, nil
}

func parseIntervalLine(line string) (int, float64, bool) {
	m := plainLine.FindStringSubmatch(line)
	if m == nil {
		m = bracketLine.FindStringSubmatch(line)
	}
	if m == nil {
		return 0, 0, false
	}
	sec, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	kbps, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, 0, false
	}
	return sec, kbps, true
}
