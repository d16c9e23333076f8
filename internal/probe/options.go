package probe

import (
	"io"

	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/sirupsen/logrus"
)

// Options wires a probe loop to its outputs. Nil fields get quiet defaults.
type Options struct {
	Reporter *report.Reporter   // Per-second lines and the final summary
	Observer Observer           // Metrics hooks
	Logger   logrus.FieldLogger // Diagnostics
}

func (o Options) withDefaults() Options {
	if o.Reporter == nil {
		o.Reporter = report.NewReporter(io.Discard, report.StylePlain, 0)
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return o
}
