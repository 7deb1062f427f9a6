package metrics

import "github.com/prometheus/client_golang/prometheus"

// ClinicMetrics exposes counters/histograms for the booking and front-desk
// flows.
type ClinicMetrics struct {
	bookingsTotal   *prometheus.CounterVec
	queueCallsTotal *prometheus.CounterVec
	commitLatency   *prometheus.HistogramVec
}

func NewClinicMetrics(reg prometheus.Registerer) *ClinicMetrics {
	m := &ClinicMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking wizard commit attempts",
		}, []string{"session", "status"}),
		queueCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "queue",
			Name:      "calls_total",
			Help:      "Total front-desk call/reset operations",
		}, []string{"session", "operation"}),
		commitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "commit_latency_seconds",
			Help:      "Latency of the final booking commit transaction",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.queueCallsTotal, m.commitLatency)
	return m
}

func (m *ClinicMetrics) ObserveBooking(session, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(session, status).Inc()
}

func (m *ClinicMetrics) ObserveQueueCall(session, operation string) {
	if m == nil {
		return
	}
	m.queueCallsTotal.WithLabelValues(session, operation).Inc()
}

func (m *ClinicMetrics) ObserveCommitLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.commitLatency.WithLabelValues(status).Observe(seconds)
}
