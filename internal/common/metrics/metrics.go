// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardStepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Step navigation attempts by wizard, direction and outcome",
		},
		[]string{"wizard", "direction", "outcome"},
	)

	WizardValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Blocked step advances caused by invalid data",
		},
		[]string{"wizard", "step"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submission attempts by wizard and outcome",
		},
		[]string{"wizard", "outcome"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "submission_duration_seconds",
			Help:    "Duration of the submission transport call in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"wizard"},
	)

	DraftStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draft_store_operations_total",
			Help: "Draft store operations by backend, operation and outcome",
		},
		[]string{"backend", "operation", "outcome"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Outcome turns an error into the "ok"/"error" label used across collectors.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
