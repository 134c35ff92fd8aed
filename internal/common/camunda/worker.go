// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"fieldservice-workers/internal/common/config"
	"fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/common/metrics"
	"fieldservice-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler reports the job outcome to the broker itself and returns the
// error it reported, if any, so the worker can record it.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Job outcomes are recorded in the
// Prometheus job metrics and, when obs is non-nil, the OpenTelemetry meter.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	log logger.Logger,
	obs *observability.Observability,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, log, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Name(taskType).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})

	return &CamundaWorker{worker: jobWorker, logger: log, taskType: taskType}
}

func instrument(taskType string, handler JobHandler, log logger.Logger, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		start := time.Now()
		err := handler.Handle(client, job)
		elapsed := time.Since(start)

		status := "completed"
		if err != nil {
			status = "failed"
			code := string(errors.ErrCodeInternal)
			if stdErr, ok := errors.AsStandardError(err); ok {
				code = string(stdErr.Code)
			}
			metrics.WorkerJobsFailed.WithLabelValues(taskType, code).Inc()
			log.Warn("job handler returned error", map[string]interface{}{
				"jobKey":    job.Key,
				"errorCode": code,
				"error":     err.Error(),
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
