package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		expectedCode  string
		expectedRetry int
	}{
		{
			name:          "database errors retry three times",
			err:           NewQueryExecutionFailedError("load_candidates", errors.New("conn reset")),
			expectedCode:  "QUERY_EXECUTION_FAILED",
			expectedRetry: 3,
		},
		{
			name:          "search timeout retries twice",
			err:           NewSearchTimeoutError("search_caregivers"),
			expectedCode:  "SEARCH_TIMEOUT",
			expectedRetry: 2,
		},
		{
			name:          "missing job is thrown",
			err:           NewJobNotFoundError("job-1"),
			expectedCode:  "JOB_NOT_FOUND",
			expectedRetry: 0,
		},
		{
			name:          "unmapped code keeps its name",
			err:           NewBusinessRuleError("closed", "job is not open"),
			expectedCode:  "BUSINESS_RULE_VIOLATION",
			expectedRetry: 0,
		},
		{
			name:          "non-retryable instance overrides code budget",
			err:           &StandardError{Code: ErrCodeRankingFailed, Message: "x", Retryable: false},
			expectedCode:  "RANKING_FAILED",
			expectedRetry: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetry, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestToErrorVariables_IncludesMetadata(t *testing.T) {
	stdErr := NewInvalidMatchInputError("jobId is required").WithMetadata("jobId", "")
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "INVALID_MATCH_INPUT", vars["errorCode"])
	assert.Equal(t, "jobId is required", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars, "jobId")
}

func TestNormalize(t *testing.T) {
	original := NewFamilyNotFoundError("fam-1")
	wrapped := fmt.Errorf("load context: %w", original)
	assert.Same(t, original, Normalize(wrapped))

	plain := Normalize(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeInvalidMatchInput:        "VALIDATION",
		ErrCodeProfileConversionFailed:  "VALIDATION",
		ErrCodeDatabaseConnectionFailed: "DATABASE",
		ErrCodeQueryTimeout:             "DATABASE",
		ErrCodeSearchQueryFailed:        "SEARCH",
		ErrCodeSearchTimeout:            "SEARCH",
		ErrCodeQueryExecutionFailed:     "DATABASE",
		ErrCodeIndexNotFound:            "SEARCH",
		ErrCodeEventPublishFailed:       "EVENTS",
		ErrCodeJobNotFound:              "NOT_FOUND",
		ErrCodeRankingFailed:            "MATCHING",
		ErrCodeInternal:                 "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), code)
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseInsertFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeQueryTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidMatchInput))
	assert.False(t, IsRetryableErrorCode(ErrCodeIndexNotFound))
}
