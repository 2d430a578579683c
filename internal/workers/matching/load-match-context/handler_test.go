// internal/workers/matching/load-match-context/handler_test.go
package loadmatchcontext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupMiniRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

var birth = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func expectJob(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "family_id", "mandatory_requirements", "children_ids", "status"}).
			AddRow("job-1", "fam-1", "{NON_SMOKER,CNH}", "{child-1}", "OPEN"))
}

func expectFamily(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM families").
		WithArgs("fam-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "has_pets", "number_of_children", "preferred_caregiver_type",
			"preferred_contract_regime", "hourly_rate_range", "domestic_help_expected",
			"latitude", "longitude", "needed_days", "needed_shifts",
		}).AddRow("fam-1", true, 2, "NANNY", "CLT", "FROM_36_TO_45", "{COOKING}", -23.55, -46.63, "{MONDAY,TUESDAY}", "{MORNING}"))
}

func expectChildren(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM children").
		WithArgs("fam-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "family_id", "birth_date", "expected_birth_date", "unborn",
			"has_special_needs", "special_needs_types", "special_needs_description",
		}).
			AddRow("child-1", "fam-1", birth, nil, false, false, "{}", nil).
			AddRow("child-2", "fam-1", nil, birth, true, nil, nil, nil))
}

func expectCaregivers(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM caregivers").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "gender", "birth_date", "is_smoker", "has_cnh",
			"experience_years", "age_ranges_experience", "certifications",
			"has_special_needs_experience", "special_needs_experience_description",
			"max_children_care", "comfortable_with_pets",
			"accepted_activities", "activities_not_accepted", "caregiver_types",
			"contract_regimes", "hourly_rate_range",
			"document_validated", "facial_validated", "background_check_validated",
			"validation_expires_at", "last_active_at",
			"latitude", "longitude", "max_travel_distance", "availability",
		}).AddRow(
			"cg-1", "FEMALE", nil, false, true,
			5, "{BABY,TODDLER}", "{FIRST_AID}",
			false, nil,
			3, "YES",
			"{COOKING}", "{}", "{NANNY}",
			"{CLT}", "FROM_36_TO_45",
			true, true, false,
			nil, nil,
			-23.56, -46.64, "UP_TO_10KM", []byte(`{"monday":{"enabled":true,"startTime":"08:00","endTime":"12:00"}}`),
		))
}

func expectReviewStats(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM caregiver_review_stats").
		WillReturnRows(sqlmock.NewRows([]string{"caregiver_id", "average_rating", "review_count"}).
			AddRow("cg-1", 4.8, 12))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_LoadsAndCachesContext(t *testing.T) {
	db, mock := setupMockDB(t)
	rdb := setupMiniRedis(t)
	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	expectJob(mock)
	expectFamily(mock)
	expectChildren(mock)
	expectCaregivers(mock)
	expectReviewStats(mock)

	input := &Input{JobID: "job-1", CaregiverIDs: []string{"cg-1", "cg-unknown"}}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.False(t, output.FromCache)
	assert.Equal(t, []string{"NON_SMOKER", "CNH"}, output.Job.MandatoryRequirements)
	assert.Equal(t, "OPEN", output.Job.Status)
	require.NotNil(t, output.Family.HasPets)
	assert.True(t, *output.Family.HasPets)
	assert.Equal(t, []string{"MONDAY", "TUESDAY"}, output.Family.NeededDays)

	require.Len(t, output.Children, 1, "only the children named by the job")
	assert.Equal(t, "child-1", output.Children[0].ID)

	require.Len(t, output.Caregivers, 1)
	cg := output.Caregivers[0]
	assert.Equal(t, []string{"BABY", "TODDLER"}, cg.AgeRangesExperience)
	require.NotNil(t, cg.MaxTravelDistance)
	assert.Equal(t, "UP_TO_10KM", *cg.MaxTravelDistance)
	assert.JSONEq(t, `{"monday":{"enabled":true,"startTime":"08:00","endTime":"12:00"}}`, string(cg.Availability))
	assert.Equal(t, 12, output.ReviewStats["cg-1"].ReviewCount)
	assert.Equal(t, []string{"cg-unknown"}, output.MissingCaregiverIDs)

	// same caregivers in another order hit the cache without touching postgres
	cached, err := handler.Execute(context.Background(), &Input{JobID: "job-1", CaregiverIDs: []string{"cg-unknown", "cg-1"}})
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, output.Caregivers[0].ID, cached.Caregivers[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		setupMock     func(mock sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name:          "missing job id",
			input:         &Input{CaregiverIDs: []string{"cg-1"}},
			expectedError: ErrInvalidInput,
		},
		{
			name:          "no caregivers",
			input:         &Input{JobID: "job-1"},
			expectedError: ErrInvalidInput,
		},
		{
			name:          "blank caregiver id",
			input:         &Input{JobID: "job-1", CaregiverIDs: []string{""}},
			expectedError: ErrInvalidInput,
		},
		{
			name:  "job not found",
			input: &Input{JobID: "job-1", CaregiverIDs: []string{"cg-1"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM jobs").WithArgs("job-1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "family_id", "mandatory_requirements", "children_ids", "status"}))
			},
			expectedError: ErrJobNotFound,
		},
		{
			name:  "family not found",
			input: &Input{JobID: "job-1", CaregiverIDs: []string{"cg-1"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectJob(mock)
				mock.ExpectQuery("FROM families").WithArgs("fam-1").WillReturnError(sql.ErrNoRows)
			},
			expectedError: ErrFamilyNotFound,
		},
		{
			name:  "caregiver query fails",
			input: &Input{JobID: "job-1", CaregiverIDs: []string{"cg-1"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				expectJob(mock)
				expectFamily(mock)
				expectChildren(mock)
				mock.ExpectQuery("FROM caregivers").WillReturnError(errors.New("connection reset"))
			},
			expectedError: ErrQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			rdb, redisMock := redismock.NewClientMock()
			if tt.setupMock != nil {
				redisMock.ExpectGet(cacheKey(tt.input.JobID, tt.input.CaregiverIDs)).RedisNil()
				tt.setupMock(mock)
			}

			handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))
			_, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.NoError(t, mock.ExpectationsWereMet())
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_CacheReadFailureFallsBackToDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	rdb, redisMock := redismock.NewClientMock()
	input := &Input{JobID: "job-1", CaregiverIDs: []string{"cg-1"}}
	key := cacheKey(input.JobID, input.CaregiverIDs)

	redisMock.ExpectGet(key).SetErr(errors.New("redis down"))
	expectJob(mock)
	expectFamily(mock)
	expectChildren(mock)
	expectCaregivers(mock)
	expectReviewStats(mock)
	redisMock.Regexp().ExpectSet(key, `.*`, time.Minute).SetErr(errors.New("redis down"))

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Len(t, output.Caregivers, 1)
	assert.Empty(t, output.MissingCaregiverIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Helper Tests
// ==========================

func TestCacheKey(t *testing.T) {
	a := cacheKey("job-1", []string{"b", "a"})
	b := cacheKey("job-1", []string{"a", "b"})
	c := cacheKey("job-1", []string{"a", "c"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "match:context:job-1:")
}

func TestHandler_ToStandardError(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, logger.NewNoOpLogger())
	input := &Input{JobID: "job-9"}

	tests := []struct {
		err  error
		code apperrors.ErrorCode
	}{
		{ErrInvalidInput, apperrors.ErrCodeInvalidMatchInput},
		{ErrJobNotFound, apperrors.ErrCodeJobNotFound},
		{ErrQueryTimeout, apperrors.ErrCodeQueryTimeout},
		{ErrQueryExecutionFailed, apperrors.ErrCodeQueryExecutionFailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.code, handler.toStandardError(tt.err, input).Code)
		})
	}

	famErr := handler.toStandardError(fmt.Errorf("%w: fam-2", ErrFamilyNotFound), input)
	assert.Equal(t, apperrors.ErrCodeFamilyNotFound, famErr.Code)
	assert.Equal(t, "familyId: fam-2", famErr.Details)
}
