// internal/workers/matching/persist-match-results/models.go
package persistmatchresults

import (
	"time"

	"cuidly-matching/internal/matching"
)

type Input struct {
	JobID   string                 `json:"jobId" validate:"required"`
	RunID   string                 `json:"runId" validate:"required,uuid"`
	Results []matching.MatchResult `json:"results" validate:"max=5000"`
}

type Output struct {
	JobID          string    `json:"jobId"`
	RunID          string    `json:"runId"`
	PersistedCount int       `json:"persistedCount"`
	EligibleCount  int       `json:"eligibleCount"`
	EventPublished bool      `json:"eventPublished"`
	MessageID      string    `json:"messageId,omitempty"`
	PersistedAt    time.Time `json:"persistedAt"`
}
