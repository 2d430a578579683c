// internal/workers/matching/rank-caregivers/models.go
package rankcaregivers

import (
	"time"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/models"
)

type Input struct {
	Job                    models.JobRecord               `json:"job"`
	Family                 models.FamilyRecord            `json:"family"`
	Children               []models.ChildRecord           `json:"children"`
	Caregivers             []models.CaregiverRecord       `json:"caregivers" validate:"max=5000"`
	ReviewStats            map[string]*models.ReviewStats `json:"reviewStats"`
	ReferenceDate          *time.Time                     `json:"referenceDate,omitempty"`
	Limit                  int                            `json:"limit,omitempty" validate:"gte=0"`
	EligibleOnly           bool                           `json:"eligibleOnly,omitempty"`
	WithinTravelRadiusOnly bool                           `json:"withinTravelRadiusOnly,omitempty"`
}

type Output struct {
	RunID           string                 `json:"runId"`
	JobID           string                 `json:"jobId"`
	Results         []matching.MatchResult `json:"results"`
	TotalCandidates int                    `json:"totalCandidates"`
	EligibleCount   int                    `json:"eligibleCount"`
	SkippedRecords  int                    `json:"skippedRecords"`
	OutsideRadius   int                    `json:"outsideRadius"`
	RankedAt        time.Time              `json:"rankedAt"`
}
