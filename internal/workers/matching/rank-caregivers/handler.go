// internal/workers/matching/rank-caregivers/handler.go
package rankcaregivers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/common/metrics"
	"cuidly-matching/internal/common/observability"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/converter"
	"cuidly-matching/internal/matching/ranking"
	"cuidly-matching/internal/matching/scoring"
)

const (
	TaskType = "rank-caregivers"
)

var (
	ErrInvalidInput            = errors.New("INVALID_MATCH_INPUT")
	ErrProfileConversionFailed = errors.New("PROFILE_CONVERSION_FAILED")
	ErrRankingFailed           = errors.New("RANKING_FAILED")
)

type Handler struct {
	config       *Config
	ranker       *ranking.Ranker
	redis        *redis.Client
	obs          *observability.Observability
	validate     *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, redis *redis.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Handler{
		config: config,
		ranker: ranking.NewRanker(
			ranking.WithScorer(scoring.NewScorer(config.Scoring)),
			ranking.WithConcurrency(config.Concurrency),
		),
		redis:        redis,
		obs:          obs,
		validate:     validator.New(),
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewInvalidMatchInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, h.toStandardError(err), start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctx, span := h.obs.StartSpan(ctx, "rank-caregivers",
		attribute.String("job.id", input.Job.ID),
		attribute.Int("candidates.received", len(input.Caregivers)),
	)
	defer span.End()

	rates := converter.WithRateTable(h.config.Scoring.Rates)
	job, err := converter.ConvertJob(input.Job)
	if err != nil {
		return nil, h.spanError(span, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	family, err := converter.ConvertFamily(input.Family, rates)
	if err != nil {
		return nil, h.spanError(span, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	children, err := converter.ConvertChildren(input.Children)
	if err != nil {
		return nil, h.spanError(span, fmt.Errorf("%w: %v", ErrProfileConversionFailed, err))
	}

	caregivers, skipped := h.convertCaregivers(input)
	received := len(caregivers)
	if input.WithinTravelRadiusOnly {
		caregivers = ranking.WithinTravelRadius(caregivers, family)
	}
	outside := received - len(caregivers)

	now := time.Now().UTC()
	if input.ReferenceDate != nil {
		now = *input.ReferenceDate
	}

	start := time.Now()
	results, err := h.ranker.FindBestMatches(ctx, caregivers, job, family, children, now)
	elapsed := time.Since(start)
	if err != nil {
		return nil, h.spanError(span, fmt.Errorf("%w: %v", ErrRankingFailed, err))
	}

	eligible := 0
	for _, r := range results {
		if r.IsEligible {
			eligible++
		}
		metrics.ObserveCandidate(r.IsEligible, r.Score, requirementNames(r.FailedRequirements))
	}
	metrics.RankingDuration.Observe(elapsed.Seconds())
	h.obs.RecordRanking(ctx, len(results), eligible, elapsed)

	if input.EligibleOnly {
		results = ranking.EligibleOnly(results)
	}
	limit := input.Limit
	if limit == 0 {
		limit = h.config.MaxResults
	}
	results = ranking.Limit(results, limit)

	rounded := make([]matching.MatchResult, len(results))
	for i, r := range results {
		rounded[i] = r.Rounded(h.config.DecimalPlaces)
	}

	output := &Output{
		RunID:           uuid.NewString(),
		JobID:           job.ID,
		Results:         rounded,
		TotalCandidates: len(caregivers),
		EligibleCount:   eligible,
		SkippedRecords:  skipped,
		OutsideRadius:   outside,
		RankedAt:        time.Now().UTC(),
	}

	span.SetAttributes(
		attribute.String("run.id", output.RunID),
		attribute.Int("candidates.scored", len(caregivers)),
		attribute.Int("candidates.eligible", eligible),
	)

	fields := map[string]interface{}{
		"jobId":      job.ID,
		"runId":      output.RunID,
		"candidates": len(caregivers),
		"eligible":   eligible,
		"returned":   len(rounded),
		"skipped":    skipped,
		"durationMs": elapsed.Milliseconds(),
	}
	if h.config.SlowThreshold > 0 && elapsed > h.config.SlowThreshold {
		h.logger.Warn("slow ranking run", fields)
	} else {
		h.logger.Info("ranking complete", fields)
	}

	h.toCache(ctx, output)
	return output, nil
}

// convertCaregivers maps the candidate records and counts the ones that
// cannot take part in the run.
func (h *Handler) convertCaregivers(input *Input) ([]matching.CaregiverProfile, int) {
	rates := converter.WithRateTable(h.config.Scoring.Rates)
	out := make([]matching.CaregiverProfile, 0, len(input.Caregivers))
	skipped := 0
	for _, rec := range input.Caregivers {
		profile, err := converter.ConvertCaregiver(rec, input.ReviewStats[rec.ID], rates)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, profile)
	}
	if skipped > 0 {
		h.logger.Warn("skipped caregiver records", map[string]interface{}{
			"jobId":   input.Job.ID,
			"skipped": skipped,
		})
	}
	return out, skipped
}

func cacheKey(jobID string) string {
	return "match:ranking:" + jobID
}

func (h *Handler) toCache(ctx context.Context, output *Output) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, cacheKey(output.JobID), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to cache ranking", map[string]interface{}{
			"jobId": output.JobID,
			"error": err.Error(),
		})
	}
}

func (h *Handler) spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func requirementNames(reqs []matching.Requirement) []string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = string(r)
	}
	return names
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrRankingFailed):
		return apperrors.NewRankingFailedError(err)
	case errors.Is(err, ErrProfileConversionFailed):
		return apperrors.NewProfileConversionFailedError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(TaskType, err)
	default:
		return apperrors.NewInvalidMatchInputError(err.Error())
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
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
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError, start time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
