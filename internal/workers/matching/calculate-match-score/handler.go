// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/common/metrics"
	"cuidly-matching/internal/common/validation"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/converter"
	"cuidly-matching/internal/matching/scoring"
)

const (
	TaskType = "calculate-match-score"
)

var (
	ErrInvalidInput            = errors.New("INVALID_MATCH_INPUT")
	ErrProfileConversionFailed = errors.New("PROFILE_CONVERSION_FAILED")
)

var schema = validation.MustCompileSchema(inputSchema)

type Handler struct {
	config       *Config
	scorer       *scoring.Scorer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       scoring.NewScorer(config.Scoring),
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := validateVariables([]byte(job.Variables)); err != nil {
		h.failJob(client, job, apperrors.NewInvalidMatchInputError(err.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidMatchInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, h.toStandardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func validateVariables(raw []byte) error {
	result, err := schema.ValidateJSON(raw)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	result, err := schema.ValidateInput(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(result.GetErrorMessages(), "; "))
	}

	rates := converter.WithRateTable(h.config.Scoring.Rates)
	caregiver, err := converter.ConvertCaregiver(input.Caregiver, input.ReviewStats, rates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileConversionFailed, err)
	}
	jobReq, err := converter.ConvertJob(input.Job)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileConversionFailed, err)
	}
	family, err := converter.ConvertFamily(input.Family, rates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileConversionFailed, err)
	}
	children, err := converter.ConvertChildren(input.Children)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileConversionFailed, err)
	}

	now := time.Now().UTC()
	if input.ReferenceDate != nil {
		now = *input.ReferenceDate
	}

	match := h.scorer.Score(caregiver, jobReq, family, children, now)
	metrics.ObserveCandidate(match.IsEligible, match.Score, requirementNames(match.FailedRequirements))

	h.logger.Info("match score calculated", map[string]interface{}{
		"caregiverId": caregiver.ID,
		"jobId":       jobReq.ID,
		"score":       match.Score,
		"isEligible":  match.IsEligible,
	})

	rounded := match.Rounded(h.config.DecimalPlaces)
	return &Output{
		MatchResult: rounded,
		Score:       rounded.Score,
		IsEligible:  rounded.IsEligible,
	}, nil
}

func requirementNames(reqs []matching.Requirement) []string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = string(r)
	}
	return names
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	if errors.Is(err, ErrProfileConversionFailed) {
		return apperrors.NewProfileConversionFailedError(err)
	}
	return apperrors.NewInvalidMatchInputError(err.Error())
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
