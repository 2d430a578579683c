// internal/workers/matching/search-caregivers/models.go
package searchcaregivers

type Location struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type Input struct {
	FamilyID            string    `json:"familyId" validate:"required"`
	Location            *Location `json:"location,omitempty"`
	RadiusKm            float64   `json:"radiusKm,omitempty" validate:"gte=0"`
	Limit               int       `json:"limit,omitempty" validate:"gte=0"`
	ExcludeCaregiverIDs []string  `json:"excludeCaregiverIds,omitempty"`
}

type Candidate struct {
	CaregiverID string   `json:"caregiverId"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
}

type Output struct {
	Candidates   []Candidate `json:"candidates"`
	CaregiverIDs []string    `json:"caregiverIds"`
	TotalHits    int64       `json:"totalHits"`
	Took         int64       `json:"took"`
}
