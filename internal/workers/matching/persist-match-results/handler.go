// internal/workers/matching/persist-match-results/handler.go
package persistmatchresults

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/common/metrics"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/models"
)

const (
	TaskType = "persist-match-results"

	// EventMatchesReady is the SNS eventType attribute of the ready event.
	EventMatchesReady = "caregiver-matches-ready"
)

var (
	ErrInvalidInput         = errors.New("INVALID_MATCH_INPUT")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

// EventPublisher publishes a JSON event and returns the broker message id.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topicARN, eventType string, payload interface{}) (string, error)
}

type Handler struct {
	config       *Config
	db           *sql.DB
	publisher    EventPublisher
	validate     *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, publisher EventPublisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		publisher:    publisher,
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
		h.failJob(client, job, h.toStandardError(err))
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
	if err := checkResults(input.Results); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rows, err := toRows(input, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := h.replaceResults(ctx, input.JobID, input.RunID, rows, now); err != nil {
		return nil, err
	}

	eligible := 0
	for _, r := range input.Results {
		if r.IsEligible {
			eligible++
		}
	}

	output := &Output{
		JobID:          input.JobID,
		RunID:          input.RunID,
		PersistedCount: len(rows),
		EligibleCount:  eligible,
		PersistedAt:    now,
	}

	h.logger.Info("match results persisted", map[string]interface{}{
		"jobId": input.JobID,
		"runId": input.RunID,
		"rows":  len(rows),
	})

	output.MessageID, output.EventPublished = h.publishReady(ctx, input, eligible, now)
	return output, nil
}

// checkResults rejects result sets that would collide on the table's
// (job_id, caregiver_id) key.
func checkResults(results []matching.MatchResult) error {
	seen := make(map[string]struct{}, len(results))
	for i, r := range results {
		if r.CaregiverID == "" {
			return fmt.Errorf("%w: results[%d] has no caregiverId", ErrInvalidInput, i)
		}
		if _, dup := seen[r.CaregiverID]; dup {
			return fmt.Errorf("%w: duplicate caregiverId %s", ErrInvalidInput, r.CaregiverID)
		}
		seen[r.CaregiverID] = struct{}{}
	}
	return nil
}

func toRows(input *Input, now time.Time) ([]models.JobMatchResult, error) {
	rows := make([]models.JobMatchResult, len(input.Results))
	for i, r := range input.Results {
		breakdown, err := json.Marshal(r.Breakdown)
		if err != nil {
			return nil, fmt.Errorf("marshal breakdown for %s: %w", r.CaregiverID, err)
		}
		reasons := r.EliminationReasons
		if reasons == nil {
			reasons = []string{}
		}
		rows[i] = models.JobMatchResult{
			JobID:              input.JobID,
			RunID:              input.RunID,
			CaregiverID:        r.CaregiverID,
			Rank:               i + 1,
			Score:              r.Score,
			FitScore:           r.FitScore,
			TrustScore:         r.TrustScore,
			BonusScore:         r.BonusScore,
			IsEligible:         r.IsEligible,
			EliminationReasons: reasons,
			DistanceKm:         r.DistanceKm,
			Breakdown:          breakdown,
			CreatedAt:          now,
		}
	}
	return rows, nil
}

// auditDetails is the JSON stored in audit_log.details for one replacement.
type auditDetails struct {
	RunID string `json:"runId"`
	Rows  int    `json:"rows"`
}

func (h *Handler) replaceResults(ctx context.Context, jobID, runID string, rows []models.JobMatchResult, now time.Time) error {
	details, err := json.Marshal(auditDetails{RunID: runID, Rows: len(rows)})
	if err != nil {
		return fmt.Errorf("%w: encode audit details: %v", ErrDatabaseInsertFailed, err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return h.insertError(ctx, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_match_results WHERE job_id = $1`, jobID); err != nil {
		return h.insertError(ctx, err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_match_results (
				job_id, run_id, caregiver_id, rank, score, fit_score, trust_score,
				bonus_score, is_eligible, elimination_reasons, distance_km, breakdown, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			row.JobID, row.RunID, row.CaregiverID, row.Rank, row.Score, row.FitScore, row.TrustScore,
			row.BonusScore, row.IsEligible, pq.Array(row.EliminationReasons), row.DistanceKm, []byte(row.Breakdown), row.CreatedAt,
		)
		if err != nil {
			return h.insertError(ctx, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, "match_results_persisted", "job", jobID, details, now)
	if err != nil {
		return h.insertError(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return h.insertError(ctx, err)
	}
	return nil
}

func (h *Handler) insertError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrQueryTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
}

// publishReady announces the stored ranking. A failed publish leaves the
// committed rows in place and is reported through the output.
func (h *Handler) publishReady(ctx context.Context, input *Input, eligible int, now time.Time) (string, bool) {
	if !h.config.PublishEvents || h.publisher == nil {
		return "", false
	}

	top := make([]string, 0, h.config.TopCount)
	for _, r := range input.Results {
		if len(top) == h.config.TopCount {
			break
		}
		if r.IsEligible {
			top = append(top, r.CaregiverID)
		}
	}

	event := models.MatchesReadyEvent{
		EventType:       EventMatchesReady,
		JobID:           input.JobID,
		RunID:           input.RunID,
		ResultCount:     len(input.Results),
		EligibleCount:   eligible,
		TopCaregiverIDs: top,
		OccurredAt:      now,
	}

	messageID, err := h.publisher.PublishEvent(ctx, h.config.TopicARN, EventMatchesReady, event)
	if err != nil {
		stdErr := apperrors.NewEventPublishFailedError(h.config.TopicARN, err)
		h.logger.Error("failed to publish matches ready event", map[string]interface{}{
			"jobId":     input.JobID,
			"runId":     input.RunID,
			"errorCode": stdErr.Code,
			"error":     stdErr.Details,
		})
		return "", false
	}
	return messageID, true
}

func (h *Handler) toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError("persist_match_results")
	case errors.Is(err, ErrDatabaseInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	default:
		return apperrors.NewInvalidMatchInputError(err.Error())
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
