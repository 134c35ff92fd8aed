// internal/workers/scheduling/plan-availability/handler.go
package planavailability

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "plan-availability"
)

type Handler struct {
	config       *Config
	planner      *Planner
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, planner *Planner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		planner:      planner,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := apperrors.NewInvalidRequestError(err.Error())
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	zone, err := models.ParseZone(input.Zone)
	if err != nil {
		return nil, err
	}

	maxSlots := h.config.MaxSlots
	if input.MaxSlots > 0 {
		maxSlots = input.MaxSlots
	}

	window := h.planner.ResolveWindow(zone, input.Urgent.Bool(), input.PreferredDate)
	slots := h.planner.Plan(ctx, window)
	total := len(slots)
	if len(slots) > maxSlots {
		slots = slots[:maxSlots]
	}

	h.logger.Info("availability planned", map[string]interface{}{
		"zone":        zone,
		"urgent":      window.Urgent,
		"windowStart": window.Start.Format(dateLayout),
		"windowDays":  window.Days,
		"available":   total,
	})

	return &Output{
		Slots:           slots,
		TotalAvailable:  total,
		WindowStart:     window.Start.Format(dateLayout),
		WindowDays:      window.Days,
		HasAvailability: total > 0,
	}, nil
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
		"slots":  len(output.Slots),
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
