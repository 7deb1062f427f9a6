package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClinicMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClinicMetrics(reg)

	m.ObserveBooking("morning", "committed")
	m.ObserveBooking("morning", "committed")
	m.ObserveBooking("evening", "duplicate")
	m.ObserveQueueCall("afternoon", "called")
	m.ObserveCommitLatency("committed", 0.02)

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("morning", "committed")); got != 2 {
		t.Errorf("expected 2 morning commits, got %v", got)
	}
	if got := testutil.ToFloat64(m.queueCallsTotal.WithLabelValues("afternoon", "called")); got != 1 {
		t.Errorf("expected 1 afternoon call, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *ClinicMetrics
	m.ObserveBooking("morning", "committed")
	m.ObserveQueueCall("morning", "called")
	m.ObserveCommitLatency("failed", 1)
}
