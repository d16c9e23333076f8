package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Style selects how per-second lines are rendered. Both shapes are accepted
// by ParseIntervals.
type Style int

const (
	StylePlain   Style = iota // 0 - 1: 123.400 KB/s
	StyleBracket              // [0 - 1] : [123.400 KB/s]
)

// ParseStyle maps a --format value to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "", "plain":
		return StylePlain, nil
	case "bracket", "brackets":
		return StyleBracket, nil
	}
	return StylePlain, fmt.Errorf("unknown report format: %s", s)
}

// Rule width bounds
const (
	DefaultRuleWidth = 72
	minRuleWidth     = 20
)

// Reporter writes the textual report. The line formats are consumed by
// downstream tools, so only the values change between runs.
//
// Write errors are sticky: the first one is kept and later writes are
// skipped. The report is best effort and never aborts a run.
type Reporter struct {
	w     io.Writer
	style Style
	rule  string
	err   error
}

// NewReporter creates a Reporter writing to w. width sets the separator rule
// length; values outside [20, 72] are clamped.
func NewReporter(w io.Writer, style Style, width int) *Reporter {
	if width <= 0 || width > DefaultRuleWidth {
		width = DefaultRuleWidth
	}
	if width < minRuleWidth {
		width = minRuleWidth
	}
	return &Reporter{
		w:     w,
		style: style,
		rule:  strings.Repeat("-", width),
	}
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error {
	return r.err
}

// Printf writes one formatted line.
func (r *Reporter) Printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format+"\n", args...)
}

// Rule writes the separator line.
func (r *Reporter) Rule() {
	r.Printf("%s", r.rule)
}

// Start writes the reception start marker.
func (r *Reporter) Start(t time.Time) {
	r.Printf("start: %s", t.Format("15:04:05.000000"))
}

// Interval writes the per-second line for w.
func (r *Reporter) Interval(w Window) {
	r.Printf("%s", FormatInterval(w, r.style))
}

// FormatInterval renders one window in the given style.
func FormatInterval(w Window, style Style) string {
	if style == StyleBracket {
		return fmt.Sprintf("[%d - %d] : [%.3f KB/s]", w.Index, w.Index+1, w.KBps())
	}
	return fmt.Sprintf("%d - %d: %.3f KB/s", w.Index, w.Index+1, w.KBps())
}

// ReceiverSummary is the final receiver report.
type ReceiverSummary struct {
	Reason     string
	Packets    uint64
	Totals     Totals
	OutOfOrder uint64
	Duplicates uint64
	Malformed  uint64
}

// Receiver writes the final receiver summary block.
func (r *Reporter) Receiver(s ReceiverSummary) {
	r.Printf("%s", s.Reason)
	r.Rule()
	r.Printf("Number of packets received : %d", s.Packets)
	r.Printf("Total bytes received       : %d", s.Totals.Bytes)
	r.Printf("Bytes received             : %.3f KB", float64(s.Totals.Bytes)/1000)
	r.Printf("Average Bytes received     : %.3f KB/s", s.Totals.AverageKBps())
	r.Printf("packets out of order       : %d / %d", s.OutOfOrder, s.Packets)
	r.Printf("duplicated packets         : %d", s.Duplicates)
	r.Printf("malformed packets          : %d", s.Malformed)
	r.Rule()
}

// SenderSummary is the final sender report.
type SenderSummary struct {
	Reason  string
	Packets uint64
	Bytes   uint64
	Elapsed time.Duration
	Totals  Totals
}

// BytesPerSecond is the sending rate over the whole run.
func (s SenderSummary) BytesPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Bytes) / secs
}

// BitsPerSecond is BytesPerSecond in bits.
func (s SenderSummary) BitsPerSecond() float64 {
	return s.BytesPerSecond() * 8
}

// Sender writes the final sender summary block.
func (r *Reporter) Sender(s SenderSummary) {
	r.Printf("%s", s.Reason)
	r.Rule()
	r.Printf("Packets transmitted     : %d", s.Packets)
	r.Printf("Total bytes transmitted : %d", s.Bytes)
	r.Printf("Elapsed                 : %.3fs", s.Elapsed.Seconds())
	r.Printf("Throughput              : %.0f B/s (%.0f bit/s)", s.BytesPerSecond(), s.BitsPerSecond())
	r.Printf("Average                 : %.3f KB/s (%.3f Mbit/s)", s.BytesPerSecond()/1000, s.BitsPerSecond()/1e6)
	r.Rule()
}
