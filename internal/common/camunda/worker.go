// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"opulanz-onboarding/internal/common/config"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every onboarding worker. Handlers complete or fail
// the job themselves.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// StartWorker opens a job worker for taskType and instruments each job with the
// worker_jobs_* collectors.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, log logger.Logger) worker.JobWorker {
	log.Info("starting worker", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout":       wcfg.Timeout,
	})

	return client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
			start := time.Now()
			defer func() {
				metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
				metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			}()
			handler.Handle(jc, job)
		}).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
}
