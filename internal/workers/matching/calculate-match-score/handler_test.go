// internal/workers/matching/calculate-match-score/handler_test.go
package calculatematchscore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cuidly-matching/internal/common/errors"
	"cuidly-matching/internal/common/logger"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func timePtr(t time.Time) *time.Time { return &t }

var refDate = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	return LoadConfig()
}

func baseInput() *Input {
	return &Input{
		Caregiver: models.CaregiverRecord{
			ID:                       "cg-1",
			IsSmoker:                 boolPtr(false),
			AgeRangesExperience:      []string{"TODDLER", "PRESCHOOL"},
			MaxChildrenCare:          intPtr(2),
			CaregiverTypes:           []string{"NANNY"},
			ContractRegimes:          []string{"CLT"},
			HourlyRateRange:          strPtr("FROM_36_TO_45"),
			DocumentValidated:        boolPtr(true),
			FacialValidated:          boolPtr(true),
			BackgroundCheckValidated: boolPtr(true),
			Latitude:                 floatPtr(-23.534434),
			Longitude:                floatPtr(-46.655881),
			MaxTravelDistance:        strPtr("UP_TO_10KM"),
			Availability:             json.RawMessage(`{"monday": {"enabled": true, "startTime": "08:00", "endTime": "17:00"}}`),
		},
		Job: models.JobRecord{
			ID:                    "job-1",
			FamilyID:              "fam-1",
			MandatoryRequirements: []string{"NON_SMOKER"},
			ChildrenIDs:           []string{"child-1"},
		},
		Family: models.FamilyRecord{
			ID:                      "fam-1",
			NumberOfChildren:        intPtr(1),
			PreferredCaregiverType:  strPtr("NANNY"),
			PreferredContractRegime: strPtr("CLT"),
			HourlyRateRange:         strPtr("FROM_36_TO_45"),
			Latitude:                floatPtr(-23.561414),
			Longitude:               floatPtr(-46.655881),
			NeededDays:              []string{"MONDAY"},
			NeededShifts:            []string{"MORNING"},
		},
		Children: []models.ChildRecord{
			{ID: "child-1", BirthDate: timePtr(time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC))},
		},
		ReviewStats:   &models.ReviewStats{AverageRating: 4.8, ReviewCount: 20},
		ReferenceDate: timePtr(refDate),
	}
}

func roundedTo(t *testing.T, v float64, places int) {
	t.Helper()
	p := math.Pow(10, float64(places))
	assert.InDelta(t, math.Round(v*p)/p, v, 1e-9)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(in *Input)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:   "eligible caregiver",
			mutate: func(in *Input) {},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.IsEligible)
				assert.Equal(t, "cg-1", output.MatchResult.CaregiverID)
				assert.Empty(t, output.MatchResult.EliminationReasons)
				assert.Greater(t, output.Score, 50.0)
				assert.Equal(t, output.Score, output.MatchResult.Score)
				roundedTo(t, output.Score, 1)
				roundedTo(t, output.MatchResult.FitScore, 1)
				require.NotNil(t, output.MatchResult.DistanceKm)
				assert.InDelta(t, 3.0, *output.MatchResult.DistanceKm, 0.1)
			},
		},
		{
			name: "smoker fails mandatory requirement but keeps a score",
			mutate: func(in *Input) {
				in.Caregiver.IsSmoker = boolPtr(true)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.False(t, output.IsEligible)
				assert.Len(t, output.MatchResult.EliminationReasons, 1)
				assert.Equal(t, []matching.Requirement{matching.RequirementNonSmoker}, output.MatchResult.FailedRequirements)
				assert.Greater(t, output.Score, 0.0)
			},
		},
		{
			name: "missing optional data still scores",
			mutate: func(in *Input) {
				in.Caregiver = models.CaregiverRecord{ID: "cg-bare"}
				in.Job.MandatoryRequirements = nil
				in.Children = nil
				in.ReviewStats = nil
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.IsEligible)
				assert.Nil(t, output.MatchResult.DistanceKm)
				for _, c := range output.MatchResult.Breakdown.Components() {
					assert.GreaterOrEqual(t, c.Score, 0.0)
					assert.LessOrEqual(t, c.Score, c.MaxScore)
				}
			},
		},
		{
			name: "scoring is stable for a fixed reference date",
			mutate: func(in *Input) {
				in.ReferenceDate = timePtr(refDate)
			},
			validateOutput: func(t *testing.T, output *Output) {
				h := NewHandler(createTestConfig(), logger.NewNoOpLogger())
				again, err := h.Execute(context.Background(), baseInput())
				require.NoError(t, err)
				assert.Equal(t, output, again)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), logger.NewTestLogger(t))
			input := baseInput()
			tt.mutate(input)

			output, err := h.Execute(context.Background(), input)
			require.NoError(t, err)
			require.NotNil(t, output)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		mutate   func(in *Input)
		wantErr  error
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "nil input",
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidMatchInput,
		},
		{
			name:     "missing caregiver id",
			input:    baseInput(),
			mutate:   func(in *Input) { in.Caregiver.ID = "" },
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidMatchInput,
		},
		{
			name:     "latitude out of range",
			input:    baseInput(),
			mutate:   func(in *Input) { in.Family.Latitude = floatPtr(123) },
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidMatchInput,
		},
		{
			name:     "rating above five",
			input:    baseInput(),
			mutate:   func(in *Input) { in.ReviewStats.AverageRating = 7 },
			wantErr:  ErrInvalidInput,
			wantCode: apperrors.ErrCodeInvalidMatchInput,
		},
		{
			name:     "blank caregiver id cannot be converted",
			input:    baseInput(),
			mutate:   func(in *Input) { in.Caregiver.ID = "   " },
			wantErr:  ErrProfileConversionFailed,
			wantCode: apperrors.ErrCodeProfileConversionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), logger.NewTestLogger(t))
			if tt.mutate != nil {
				tt.mutate(tt.input)
			}

			output, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.wantCode, h.toStandardError(err).Code)
		})
	}
}

func TestValidateVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   string
	}{
		{
			name:      "valid with extra process variables",
			variables: `{"caregiver": {"id": "cg-1"}, "job": {"id": "job-1"}, "family": {"id": "fam-1"}, "runId": "r-1"}`,
		},
		{
			name:      "missing family",
			variables: `{"caregiver": {"id": "cg-1"}, "job": {"id": "job-1"}}`,
			wantErr:   "family",
		},
		{
			name:      "wrong type",
			variables: `{"caregiver": {"id": 1}, "job": {"id": "job-1"}, "family": {"id": "fam-1"}}`,
			wantErr:   "caregiver.id",
		},
		{
			name:      "bad reference date",
			variables: `{"caregiver": {"id": "cg-1"}, "job": {"id": "job-1"}, "family": {"id": "fam-1"}, "referenceDate": "yesterday"}`,
			wantErr:   "referenceDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateVariables([]byte(tt.variables))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.DecimalPlaces)
	assert.Equal(t, 25.0, cfg.Scoring.MaxScores.AgeRange)
}
