// internal/models/match_result.go
package models

import (
	"encoding/json"
	"time"
)

// JobMatchResult is one persisted row of a ranking run.
type JobMatchResult struct {
	JobID              string          `json:"jobId" db:"job_id"`
	RunID              string          `json:"runId" db:"run_id"`
	CaregiverID        string          `json:"caregiverId" db:"caregiver_id"`
	Rank               int             `json:"rank" db:"rank"`
	Score              float64         `json:"score" db:"score"`
	FitScore           float64         `json:"fitScore" db:"fit_score"`
	TrustScore         float64         `json:"trustScore" db:"trust_score"`
	BonusScore         float64         `json:"bonusScore" db:"bonus_score"`
	IsEligible         bool            `json:"isEligible" db:"is_eligible"`
	EliminationReasons []string        `json:"eliminationReasons" db:"elimination_reasons"`
	DistanceKm         *float64        `json:"distanceKm,omitempty" db:"distance_km"`
	Breakdown          json.RawMessage `json:"breakdown" db:"breakdown"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
}

// MatchesReadyEvent is published once a job's ranking has been stored.
type MatchesReadyEvent struct {
	EventType       string    `json:"eventType"`
	JobID           string    `json:"jobId"`
	RunID           string    `json:"runId"`
	ResultCount     int       `json:"resultCount"`
	EligibleCount   int       `json:"eligibleCount"`
	TopCaregiverIDs []string  `json:"topCaregiverIds"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// CorrelationKey lets process instances waiting on a job's matches pick the event up.
func (e MatchesReadyEvent) CorrelationKey() string { return e.JobID }
