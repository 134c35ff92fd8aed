// internal/workers/scheduling/score-technicians/handler.go
package scoretechnicians

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "fieldservice-workers/internal/common/errors"
	"fieldservice-workers/internal/common/logger"
	"fieldservice-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-technicians"
)

var (
	ErrEquipmentRequired = errors.New("EQUIPMENT_REQUIRED")
)

type Handler struct {
	config       *Config
	directory    *Directory
	scorer       *Scorer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, directory *Directory, scorer *Scorer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		directory:    directory,
		scorer:       scorer,
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
	equipment := make([]string, 0, len(input.Equipment))
	for _, eq := range input.Equipment {
		if eq = strings.TrimSpace(eq); eq != "" {
			equipment = append(equipment, eq)
		}
	}
	if len(equipment) == 0 {
		return nil, ErrEquipmentRequired
	}
	if len(equipment) > models.MaxEquipmentItems {
		equipment = equipment[:models.MaxEquipmentItems]
	}

	zone, err := models.ParseZone(input.Zone)
	if err != nil {
		return nil, err
	}

	techs, fallback := h.directory.ActiveTechnicians(ctx)
	ranking := h.scorer.Rank(techs, equipment, zone, input.Urgent.Bool())

	h.logger.Info("technicians ranked", map[string]interface{}{
		"zone":           zone,
		"candidates":     ranking.Candidates,
		"bestTechnician": ranking.Best.Technician.ID,
		"bestScore":      ranking.Best.Score,
		"fallbackRoster": fallback,
	})

	return &Output{
		BestTechnician: ranking.Best,
		Alternatives:   ranking.Alternatives,
		CandidateCount: ranking.Candidates,
		FallbackRoster: fallback,
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
		"jobKey":         job.Key,
		"bestTechnician": output.BestTechnician.Technician.ID,
	})
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
