// internal/models/caregiver.go
package models

import (
	"encoding/json"
	"time"
)

// CaregiverRecord is a caregiver row as the persistence layer returns it.
// Optional columns are pointers; array columns may be nil.
type CaregiverRecord struct {
	ID        string     `json:"id" db:"id"`
	Gender    *string    `json:"gender,omitempty" db:"gender"`
	BirthDate *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	IsSmoker  *bool      `json:"isSmoker,omitempty" db:"is_smoker"`
	HasCnh    *bool      `json:"hasCnh,omitempty" db:"has_cnh"`

	ExperienceYears                   *int     `json:"experienceYears,omitempty" db:"experience_years"`
	AgeRangesExperience               []string `json:"ageRangesExperience,omitempty" db:"age_ranges_experience"`
	Certifications                    []string `json:"certifications,omitempty" db:"certifications"`
	HasSpecialNeedsExperience         *bool    `json:"hasSpecialNeedsExperience,omitempty" db:"has_special_needs_experience"`
	SpecialNeedsExperienceDescription *string  `json:"specialNeedsExperienceDescription,omitempty" db:"special_needs_experience_description"`

	MaxChildrenCare     *int    `json:"maxChildrenCare,omitempty" db:"max_children_care"`
	ComfortableWithPets *string `json:"comfortableWithPets,omitempty" db:"comfortable_with_pets"`

	AcceptedActivities    []string `json:"acceptedActivities,omitempty" db:"accepted_activities"`
	ActivitiesNotAccepted []string `json:"activitiesNotAccepted,omitempty" db:"activities_not_accepted"`
	CaregiverTypes        []string `json:"caregiverTypes,omitempty" db:"caregiver_types"`
	ContractRegimes       []string `json:"contractRegimes,omitempty" db:"contract_regimes"`
	HourlyRateRange       *string  `json:"hourlyRateRange,omitempty" db:"hourly_rate_range"`

	DocumentValidated        *bool      `json:"documentValidated,omitempty" db:"document_validated"`
	FacialValidated          *bool      `json:"facialValidated,omitempty" db:"facial_validated"`
	BackgroundCheckValidated *bool      `json:"backgroundCheckValidated,omitempty" db:"background_check_validated"`
	ValidationExpiresAt      *time.Time `json:"validationExpiresAt,omitempty" db:"validation_expires_at"`
	LastActiveAt             *time.Time `json:"lastActiveAt,omitempty" db:"last_active_at"`

	Latitude          *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64 `json:"longitude,omitempty" db:"longitude"`
	MaxTravelDistance *string  `json:"maxTravelDistance,omitempty" db:"max_travel_distance"`

	// Availability is the weekly schedule JSONB column, keyed by weekday.
	Availability json.RawMessage `json:"availability,omitempty" db:"availability"`
}

// ReviewStats is the precomputed review aggregate for one caregiver.
type ReviewStats struct {
	CaregiverID   string  `json:"caregiverId,omitempty" db:"caregiver_id"`
	AverageRating float64 `json:"averageRating" db:"average_rating"`
	ReviewCount   int     `json:"reviewCount" db:"review_count"`
}
