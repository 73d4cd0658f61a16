// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_completed_total",
			Help: "Total number of persisted submissions",
		},
		[]string{"entity", "mode"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_failed_total",
			Help: "Total number of failed submissions",
		},
		[]string{"entity", "error_code"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wizard_submission_duration_seconds",
			Help: "Duration of submission processing in seconds",
		},
		[]string{"entity"},
	)

	SubmissionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wizard_submissions_active",
			Help: "Number of in-flight submissions",
		},
		[]string{"entity"},
	)

	AssetUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_asset_uploads_total",
			Help: "Asset uploads by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Navigation attempts by direction and outcome",
		},
		[]string{"entity", "direction", "outcome"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Field validation failures by field and message",
		},
		[]string{"entity", "field", "message"},
	)

	CompletionPercentage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wizard_completion_percentage",
			Help:    "Completion percentage of submitted records",
			Buckets: []float64{25, 50, 75, 90, 100},
		},
		[]string{"entity"},
	)

	HookFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_post_submit_hook_failures_total",
			Help: "Post-submit side effects that failed",
		},
		[]string{"hook"},
	)
)
