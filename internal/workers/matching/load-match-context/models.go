// internal/workers/matching/load-match-context/models.go
package loadmatchcontext

import "cuidly-matching/internal/models"

type Input struct {
	JobID        string   `json:"jobId" validate:"required"`
	CaregiverIDs []string `json:"caregiverIds" validate:"required,min=1,max=1000,dive,required"`
}

// Output is the full set of storage records a ranking run needs.
type Output struct {
	Job                 models.JobRecord              `json:"job"`
	Family              models.FamilyRecord           `json:"family"`
	Children            []models.ChildRecord          `json:"children"`
	Caregivers          []models.CaregiverRecord      `json:"caregivers"`
	ReviewStats         map[string]models.ReviewStats `json:"reviewStats"`
	MissingCaregiverIDs []string                      `json:"missingCaregiverIds"`
	FromCache           bool                          `json:"fromCache"`
}
