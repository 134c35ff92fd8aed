// internal/workers/scheduling/schedule-appointment/handler.go
package scheduleappointment

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "schedule-appointment"
)

type Handler struct {
	config       *Config
	orchestrator *Orchestrator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, orchestrator *Orchestrator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

// parseInput validates the raw variables against the request schema before decoding.
func (h *Handler) parseInput(variables string) (*Input, error) {
	result := inputSchema.ValidateJSON(variables)
	if !result.Valid {
		stdErr := apperrors.NewInvalidRequestError(result.Summary())
		return nil, stdErr.WithMetadata("validationErrors", result.Errors)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return h.orchestrator.Process(ctx, input)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		stdErr := apperrors.NewExternalServiceError("zeebe", err)
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return apperrors.NewExternalServiceError("zeebe", err)
	}

	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
		"phase":  output.Phase,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
