package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cbrunnkvist/nettest/internal/probe"
	"github.com/cbrunnkvist/nettest/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
)

func counterValue(vec *prometheus.CounterVec, labels ...string) float64 {
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(vec *prometheus.GaugeVec, labels ...string) float64 {
	var m dto.Metric
	if err := vec.WithLabelValues(labels...).Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestCollectorReceiver(t *testing.T) {
	c := New(probe.RoleReceiver)
	c.Received(probe.ClassFirst, 100)
	c.Received(probe.ClassInOrder, 100)
	c.Received(probe.ClassDuplicate, 100)
	c.Received(probe.ClassDuplicate, 100)
	c.Received(probe.ClassMalformed, 2)
	c.Window(report.Window{Index: 0, Bytes: 402})

	if got := counterValue(c.packets, "receiver", "duplicate"); got != 2 {
		t.Errorf("duplicate packets = %v, want 2", got)
	}
	if got := counterValue(c.packets, "receiver", "malformed"); got != 1 {
		t.Errorf("malformed packets = %v, want 1", got)
	}
	if got := counterValue(c.bytes, "receiver"); got != 402 {
		t.Errorf("bytes = %v, want 402", got)
	}
	if got := gaugeValue(c.window, "receiver"); got != 0.402 {
		t.Errorf("window = %v, want 0.402", got)
	}
}

func TestCollectorSender(t *testing.T) {
	c := New(probe.RoleSender)
	for i := 0; i < 3; i++ {
		c.Sent(1200)
	}
	if got := counterValue(c.packets, "sender", "sent"); got != 3 {
		t.Errorf("sent packets = %v, want 3", got)
	}
	if got := counterValue(c.bytes, "sender"); got != 3600 {
		t.Errorf("bytes = %v, want 3600", got)
	}
}

func TestServe(t *testing.T) {
	c := New(probe.RoleSender)
	c.Sent(64)

	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := c.Serve(ctx, "127.0.0.1:0", log)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`nettest_packets_total{class="sent",role="sender"} 1`,
		`nettest_bytes_total{role="sender"} 64`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}
