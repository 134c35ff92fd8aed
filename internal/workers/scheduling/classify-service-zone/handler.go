// internal/workers/scheduling/classify-service-zone/handler.go
package classifyservicezone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-service-zone"
)

var (
	ErrAddressRequired = errors.New("ADDRESS_REQUIRED")
)

type Handler struct {
	config       *Config
	classifier   *Classifier
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, classifier *Classifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		classifier:   classifier,
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
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is empty", ErrAddressRequired)
	}

	result := h.classifier.Classify(ctx, address)

	h.logger.Info("address classified", map[string]interface{}{
		"zone":   result.Zone,
		"method": result.Method,
	})

	return &Output{
		Zone:        result.Zone,
		Method:      result.Method,
		Coordinates: result.Coordinates,
		DistanceKm:  result.DistanceKm,
		PostalCode:  result.PostalCode,
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
		"zone":   output.Zone,
	})
	return nil
}

// Execute is the exported entry point for tests and in-process callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
