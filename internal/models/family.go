// internal/models/family.go
package models

import "time"

type FamilyRecord struct {
	ID                      string   `json:"id" db:"id"`
	HasPets                 *bool    `json:"hasPets,omitempty" db:"has_pets"`
	NumberOfChildren        *int     `json:"numberOfChildren,omitempty" db:"number_of_children"`
	PreferredCaregiverType  *string  `json:"preferredCaregiverType,omitempty" db:"preferred_caregiver_type"`
	PreferredContractRegime *string  `json:"preferredContractRegime,omitempty" db:"preferred_contract_regime"`
	HourlyRateRange         *string  `json:"hourlyRateRange,omitempty" db:"hourly_rate_range"`
	DomesticHelpExpected    []string `json:"domesticHelpExpected,omitempty" db:"domestic_help_expected"`
	Latitude                *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude               *float64 `json:"longitude,omitempty" db:"longitude"`
	NeededDays              []string `json:"neededDays,omitempty" db:"needed_days"`
	NeededShifts            []string `json:"neededShifts,omitempty" db:"needed_shifts"`
}

type JobRecord struct {
	ID                    string   `json:"id" db:"id"`
	FamilyID              string   `json:"familyId" db:"family_id"`
	MandatoryRequirements []string `json:"mandatoryRequirements,omitempty" db:"mandatory_requirements"`
	ChildrenIDs           []string `json:"childrenIds,omitempty" db:"children_ids"`
	Status                string   `json:"status,omitempty" db:"status"`
}

type ChildRecord struct {
	ID                      string     `json:"id" db:"id"`
	FamilyID                string     `json:"familyId,omitempty" db:"family_id"`
	BirthDate               *time.Time `json:"birthDate,omitempty" db:"birth_date"`
	ExpectedBirthDate       *time.Time `json:"expectedBirthDate,omitempty" db:"expected_birth_date"`
	Unborn                  *bool      `json:"unborn,omitempty" db:"unborn"`
	HasSpecialNeeds         *bool      `json:"hasSpecialNeeds,omitempty" db:"has_special_needs"`
	SpecialNeedsTypes       []string   `json:"specialNeedsTypes,omitempty" db:"special_needs_types"`
	SpecialNeedsDescription *string    `json:"specialNeedsDescription,omitempty" db:"special_needs_description"`
}
