package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/store-auditor/backend/audit"
)

var (
	AuditsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeaudit_audits_completed_total",
			Help: "Total number of audits normalized, by fallback tier",
		},
		[]string{"tier"},
	)

	AuditsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storeaudit_audits_failed_total",
			Help: "Total number of audits whose model call failed",
		},
	)

	AuditDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeaudit_audit_duration_seconds",
			Help:    "Duration of audit model calls in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"outcome"},
	)

	AuditsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storeaudit_audits_active",
			Help: "Number of audits currently waiting on the model",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeaudit_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// Recorder feeds audit outcomes into the Prometheus collectors
type Recorder struct{}

var _ audit.Recorder = Recorder{}

func (Recorder) RecordAudit(_ string, tier audit.Tier, duration time.Duration) {
	AuditsCompleted.WithLabelValues(tier.String()).Inc()
	AuditDuration.WithLabelValues("completed").Observe(duration.Seconds())
}

func (Recorder) RecordFailure(_ string, duration time.Duration) {
	AuditsFailed.Inc()
	AuditDuration.WithLabelValues("failed").Observe(duration.Seconds())
}
