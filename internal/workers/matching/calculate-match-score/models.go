// internal/workers/matching/calculate-match-score/models.go
package calculatematchscore

import (
	"time"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/models"
)

type Input struct {
	Caregiver     models.CaregiverRecord `json:"caregiver"`
	Job           models.JobRecord       `json:"job"`
	Family        models.FamilyRecord    `json:"family"`
	Children      []models.ChildRecord   `json:"children,omitempty"`
	ReviewStats   *models.ReviewStats    `json:"reviewStats,omitempty"`
	ReferenceDate *time.Time             `json:"referenceDate,omitempty"`
}

type Output struct {
	MatchResult matching.MatchResult `json:"matchResult"`
	Score       float64              `json:"score"`
	IsEligible  bool                 `json:"isEligible"`
}

// inputSchema guards the raw process variables before they are converted.
const inputSchema = `{
	"type": "object",
	"required": ["caregiver", "job", "family"],
	"properties": {
		"caregiver": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "string", "minLength": 1},
				"latitude": {"type": "number", "minimum": -90, "maximum": 90},
				"longitude": {"type": "number", "minimum": -180, "maximum": 180},
				"maxChildrenCare": {"type": "integer", "minimum": 0},
				"experienceYears": {"type": "integer", "minimum": 0},
				"availability": {"type": ["object", "null"]}
			}
		},
		"job": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "string", "minLength": 1},
				"mandatoryRequirements": {"type": ["array", "null"], "items": {"type": "string"}},
				"childrenIds": {"type": ["array", "null"], "items": {"type": "string"}}
			}
		},
		"family": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "string", "minLength": 1},
				"latitude": {"type": "number", "minimum": -90, "maximum": 90},
				"longitude": {"type": "number", "minimum": -180, "maximum": 180},
				"numberOfChildren": {"type": "integer", "minimum": 0}
			}
		},
		"children": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "minLength": 1}}
			}
		},
		"reviewStats": {
			"type": ["object", "null"],
			"properties": {
				"averageRating": {"type": "number", "minimum": 0, "maximum": 5},
				"reviewCount": {"type": "integer", "minimum": 0}
			}
		},
		"referenceDate": {"type": "string", "format": "date-time"}
	}
}`
