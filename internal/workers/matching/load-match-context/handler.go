// internal/workers/matching/load-match-context/handler.go
package loadmatchcontext

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/common/metrics"
	"cuidly-matching/internal/models"
)

const (
	TaskType = "load-match-context"
)

var (
	ErrInvalidInput         = errors.New("INVALID_MATCH_INPUT")
	ErrJobNotFound          = errors.New("JOB_NOT_FOUND")
	ErrFamilyNotFound       = errors.New("FAMILY_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	validate     *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        redis,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidMatchInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, h.toStandardError(err, &input))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := cacheKey(input.JobID, input.CaregiverIDs)
	if cached, ok := h.fromCache(ctx, key); ok {
		h.logger.Debug("match context served from cache", map[string]interface{}{"jobId": input.JobID})
		return cached, nil
	}

	job, err := fetchJob(ctx, h.db, input.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, input.JobID)
		}
		return nil, h.queryError(ctx, "job", err)
	}

	family, err := fetchFamily(ctx, h.db, job.FamilyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, job.FamilyID)
		}
		return nil, h.queryError(ctx, "family", err)
	}

	children, err := fetchChildren(ctx, h.db, family.ID, job.ChildrenIDs)
	if err != nil {
		return nil, h.queryError(ctx, "children", err)
	}

	caregivers, err := fetchCaregivers(ctx, h.db, input.CaregiverIDs)
	if err != nil {
		return nil, h.queryError(ctx, "caregivers", err)
	}

	stats, err := fetchReviewStats(ctx, h.db, input.CaregiverIDs)
	if err != nil {
		return nil, h.queryError(ctx, "review_stats", err)
	}

	output := &Output{
		Job:                 *job,
		Family:              *family,
		Children:            children,
		Caregivers:          caregivers,
		ReviewStats:         stats,
		MissingCaregiverIDs: missingIDs(input.CaregiverIDs, caregivers),
	}

	h.logger.Info("match context loaded", map[string]interface{}{
		"jobId":      job.ID,
		"children":   len(children),
		"caregivers": len(caregivers),
		"missing":    len(output.MissingCaregiverIDs),
	})

	h.toCache(ctx, key, output)
	return output, nil
}

func (h *Handler) queryError(ctx context.Context, queryType string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrQueryTimeout, queryType)
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryExecutionFailed, queryType, err)
}

func (h *Handler) fromCache(ctx context.Context, key string) (*Output, bool) {
	if h.redis == nil {
		return nil, false
	}
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("context cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	var out Output
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, false
	}
	out.FromCache = true
	return &out, true
}

func (h *Handler) toCache(ctx context.Context, key string, output *Output) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("context cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// cacheKey does not depend on the order the caregiver ids arrive in.
func cacheKey(jobID string, caregiverIDs []string) string {
	ids := append([]string(nil), caregiverIDs...)
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, ",")))
	return fmt.Sprintf("match:context:%s:%s", jobID, hex.EncodeToString(sum[:8]))
}

func missingIDs(requested []string, found []models.CaregiverRecord) []string {
	seen := make(map[string]bool, len(found))
	for _, c := range found {
		seen[c.ID] = true
	}
	missing := []string{}
	for _, id := range requested {
		if !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing
}

func (h *Handler) toStandardError(err error, input *Input) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidMatchInputError(err.Error())
	case errors.Is(err, ErrJobNotFound):
		return apperrors.NewJobNotFoundError(input.JobID)
	case errors.Is(err, ErrFamilyNotFound):
		return apperrors.NewFamilyNotFoundError(strings.TrimPrefix(err.Error(), ErrFamilyNotFound.Error()+": "))
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(TaskType)
	default:
		return apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
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
