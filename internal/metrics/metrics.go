package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels shared by the collectors below
const (
	ResultSuccess    = "success"
	ResultExisting   = "existing"
	ResultOutOfTexts = "out_of_texts"
	ResultFailed     = "failed"
)

var (
	// CreateAssignmentDuration tracks the latency of assignment creation
	CreateAssignmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "textclaim_create_assignment_duration_seconds",
			Help: "Duration of assignment creation requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"result"},
	)

	// TextClaims counts claim_text invocations
	TextClaims = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textclaim_text_claims_total",
			Help: "Number of text claim attempts by result",
		},
		[]string{"result"},
	)

	// Rollbacks counts compensating rollbacks of failed assignment attempts
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textclaim_rollbacks_total",
			Help: "Number of assignment rollbacks by outcome",
		},
		[]string{"outcome"}, // clean or partial
	)

	// Notifications counts notification dispatch outcomes
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textclaim_notifications_total",
			Help: "Number of notification dispatch attempts by outcome",
		},
		[]string{"outcome"}, // sent, rejected, transport_error, not_configured
	)

	// ReleasedTexts counts texts returned to the pool by the reconciliation sweep
	ReleasedTexts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textclaim_reconcile_released_texts_total",
			Help: "Number of orphaned texts released by the reconciliation sweep",
		},
	)
)

// RecordCreateAssignmentDuration records the duration of an assignment creation request
func RecordCreateAssignmentDuration(result string, duration float64) {
	CreateAssignmentDuration.WithLabelValues(result).Observe(duration)
}

// RecordClaim records the result of one claim_text call
func RecordClaim(result string) {
	TextClaims.WithLabelValues(result).Inc()
}

// RecordRollback records a rollback; clean is false when any compensation step failed
func RecordRollback(clean bool) {
	outcome := "clean"
	if !clean {
		outcome = "partial"
	}
	Rollbacks.WithLabelValues(outcome).Inc()
}

// RecordNotification records a notification dispatch outcome
func RecordNotification(outcome string) {
	Notifications.WithLabelValues(outcome).Inc()
}

// RecordReleasedTexts records texts released by the reconciliation sweep
func RecordReleasedTexts(n int64) {
	if n > 0 {
		ReleasedTexts.Add(float64(n))
	}
}
