package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement pipeline outcomes.
type SettlementMetrics struct {
	duration           *prometheus.HistogramVec
	settled            *prometheus.CounterVec
	consistencyFailure *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_completed_total",
		Help: "Completed settlements.",
	}, []string{"payment_method"})
	consistencyFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_consistency_failure_total",
		Help: "Post-commit side effects that failed and were queued for reconciliation.",
	}, []string{"step"})
	reg.MustRegister(duration, settled, consistencyFailure)
	return &SettlementMetrics{
		duration:           duration,
		settled:            settled,
		consistencyFailure: consistencyFailure,
	}
}

// ObserveDuration records the duration for the given payment method.
func (s *SettlementMetrics) ObserveDuration(method string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncSettled increments the completed counter for the given payment method.
func (s *SettlementMetrics) IncSettled(method string) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncConsistencyFailure increments the failure counter for the named step.
func (s *SettlementMetrics) IncConsistencyFailure(step string) {
	if s == nil || s.consistencyFailure == nil {
		return
	}
	s.consistencyFailure.WithLabelValues(normalizeLabel(step)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
