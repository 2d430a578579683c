// internal/workers/matching/persist-match-results/handler_test.go
package persistmatchresults

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuidly-matching/internal/common/config"
	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

const (
	testRunID = "5f0c6f5e-3b9a-4d7e-9a52-1c1f4f7a2b10"
	testTopic = "arn:aws:sns:us-east-1:000000000000:caregiver-matches"
)

// auditDetailsArg matches the JSON written to audit_log.details.
type auditDetailsArg struct {
	want auditDetails
}

func (a auditDetailsArg) Match(v driver.Value) bool {
	raw, ok := v.([]byte)
	if !ok {
		return false
	}
	var got auditDetails
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return got == a.want
}

type fakePublisher struct {
	topics  []string
	types   []string
	payload []interface{}
	err     error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topicARN, eventType string, payload interface{}) (string, error) {
	f.topics = append(f.topics, topicARN)
	f.types = append(f.types, eventType)
	f.payload = append(f.payload, payload)
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		PublishEvents: true,
		TopicARN:      testTopic,
		TopCount:      2,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func createTestInput() *Input {
	km := 2.5
	return &Input{
		JobID: "job-1",
		RunID: testRunID,
		Results: []matching.MatchResult{
			{CaregiverID: "cg-1", Score: 91.2, FitScore: 75, TrustScore: 11.2, BonusScore: 5, IsEligible: true, EliminationReasons: []string{}, DistanceKm: &km},
			{CaregiverID: "cg-2", Score: 80.4, FitScore: 70, TrustScore: 8.4, BonusScore: 2, IsEligible: false, EliminationReasons: []string{"Caregiver is a smoker"}},
			{CaregiverID: "cg-3", Score: 64, FitScore: 60, TrustScore: 4, IsEligible: true},
			{CaregiverID: "cg-4", Score: 50, FitScore: 50, IsEligible: true},
		},
	}
}

func expectReplace(mock sqlmock.Sqlmock, rows int) {
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM job_match_results`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	for i := 0; i < rows; i++ {
		mock.ExpectExec(`INSERT INTO job_match_results`).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("match_results_persisted", "job", "job-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	expectReplace(mock, 4)

	pub := &fakePublisher{}
	h := NewHandler(createTestConfig(), db, pub, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	require.NotNil(t, output)

	assert.Equal(t, "job-1", output.JobID)
	assert.Equal(t, testRunID, output.RunID)
	assert.Equal(t, 4, output.PersistedCount)
	assert.Equal(t, 3, output.EligibleCount)
	assert.True(t, output.EventPublished)
	assert.Equal(t, "msg-1", output.MessageID)
	assert.False(t, output.PersistedAt.IsZero())

	require.Len(t, pub.types, 1)
	assert.Equal(t, EventMatchesReady, pub.types[0])
	assert.Equal(t, testTopic, pub.topics[0])
	event, ok := pub.payload[0].(models.MatchesReadyEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"cg-1", "cg-3"}, event.TopCaregiverIDs)
	assert.Equal(t, 4, event.ResultCount)
	assert.Equal(t, 3, event.EligibleCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RowValues(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM job_match_results`).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO job_match_results`).
		WithArgs("job-1", testRunID, "cg-1", 1, 91.2, 75.0, 11.2, 5.0, true,
			sqlmock.AnyArg(), 2.5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("match_results_persisted", "job", "job-1",
			auditDetailsArg{want: auditDetails{RunID: testRunID, Rows: 1}}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cfg := createTestConfig()
	cfg.PublishEvents = false
	h := NewHandler(cfg, db, nil, logger.NewTestLogger(t))

	input := createTestInput()
	input.Results = input.Results[:1]
	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, output.EventPublished)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyResultsClearsJob(t *testing.T) {
	db, mock := setupMockDB(t)
	expectReplace(mock, 0)

	h := NewHandler(createTestConfig(), db, &fakePublisher{}, logger.NewTestLogger(t))
	input := createTestInput()
	input.Results = nil

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, output.PersistedCount)
	assert.True(t, output.EventPublished)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PublishFailureIsNotFatal(t *testing.T) {
	db, mock := setupMockDB(t)
	expectReplace(mock, 4)

	pub := &fakePublisher{err: errors.New("throttled")}
	h := NewHandler(createTestConfig(), db, pub, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.False(t, output.EventPublished)
	assert.Empty(t, output.MessageID)
	assert.Equal(t, 4, output.PersistedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
	}{
		{
			name: "begin fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
		},
		{
			name: "delete fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM job_match_results`).WillReturnError(errors.New("lock timeout"))
				mock.ExpectRollback()
			},
		},
		{
			name: "insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM job_match_results`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO job_match_results`).WillReturnError(errors.New("unique violation"))
				mock.ExpectRollback()
			},
		},
		{
			name: "commit fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM job_match_results`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO job_match_results`).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			tt.setupMock(mock)

			pub := &fakePublisher{}
			h := NewHandler(createTestConfig(), db, pub, logger.NewTestLogger(t))
			input := createTestInput()
			input.Results = input.Results[:1]

			output, err := h.Execute(context.Background(), input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
			assert.Equal(t, apperrors.ErrCodeDatabaseInsertFailed, h.toStandardError(err).Code)
			assert.Empty(t, pub.types, "nothing is published for an uncommitted run")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{name: "missing job id", mutate: func(in *Input) { in.JobID = "" }},
		{name: "run id is not a uuid", mutate: func(in *Input) { in.RunID = "run-1" }},
		{name: "result without caregiver", mutate: func(in *Input) { in.Results[1].CaregiverID = "" }},
		{name: "duplicate caregiver", mutate: func(in *Input) { in.Results[2].CaregiverID = "cg-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			h := NewHandler(createTestConfig(), db, &fakePublisher{}, logger.NewTestLogger(t))
			input := createTestInput()
			tt.mutate(input)

			_, err := h.Execute(context.Background(), input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, apperrors.ErrCodeInvalidMatchInput, h.toStandardError(err).Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestToStandardError_Timeout(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, nil, logger.NewNoOpLogger())
	stdErr := h.toStandardError(h.insertError(context.Background(), context.DeadlineExceeded))
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestNewConfig_EventChannels(t *testing.T) {
	tests := []struct {
		name        string
		events      config.EventsConfig
		wantPublish bool
		wantTopic   string
	}{
		{name: "disabled", wantPublish: false},
		{
			name:        "sns",
			events:      config.EventsConfig{SNS: config.SNSConfig{Enabled: true, TopicARN: testTopic}},
			wantPublish: true,
			wantTopic:   testTopic,
		},
		{
			name:        "zeebe messages ignore the topic",
			events:      config.EventsConfig{SNS: config.SNSConfig{TopicARN: testTopic}, Zeebe: config.ZeebeMessageConfig{Enabled: true}},
			wantPublish: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig(&config.Config{
				Workers: map[string]config.WorkerConfig{TaskType: {Timeout: 2000}},
				Events:  tt.events,
			})
			assert.Equal(t, tt.wantPublish, c.PublishEvents)
			assert.Equal(t, tt.wantTopic, c.TopicARN)
			assert.Equal(t, 2*time.Second, c.Timeout)
		})
	}
}
