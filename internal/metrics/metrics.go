// Package metrics exports probe counters in the Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cbrunnkvist/nettest/internal/probe"
	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "nettest"

// Collector records probe events for one role. It implements probe.Observer
// and owns its registry, so several collectors can live in one process.
type Collector struct {
	role     string
	registry *prometheus.Registry

	packets *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	window  *prometheus.GaugeVec
}

// New creates a Collector labelled with role.
func New(role probe.Role) *Collector {
	c := &Collector{
		role:     role.String(),
		registry: prometheus.NewRegistry(),
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_total",
			Help:      "Datagrams sent or received, by classification.",
		}, []string{"role", "class"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Datagram bytes sent or received.",
		}, []string{"role"}),
		window: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_kilobytes_per_second",
			Help:      "Throughput of the last closed one-second window.",
		}, []string{"role"}),
	}
	c.registry.MustRegister(c.packets, c.bytes, c.window)
	return c
}

// Sent counts one transmitted data datagram of n bytes.
func (c *Collector) Sent(n int) {
	c.packets.WithLabelValues(c.role, "sent").Inc()
	c.bytes.WithLabelValues(c.role).Add(float64(n))
}

// Received counts one received datagram under its classification.
func (c *Collector) Received(class probe.Class, n int) {
	c.packets.WithLabelValues(c.role, class.String()).Inc()
	c.bytes.WithLabelValues(c.role).Add(float64(n))
}

// Window publishes the throughput of a closed window.
func (c *Collector) Window(w report.Window) {
	c.window.WithLabelValues(c.role).Set(w.KBps())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done. The bound
// address is returned once the listener is up.
func (c *Collector) Serve(ctx context.Context, addr string, log logrus.FieldLogger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})

	log.Infof("serving metrics on http://%v/metrics", ln.Addr())
	return ln.Addr(), nil
}

var _ probe.Observer = (*Collector)(nil)
