// internal/matching/profile.go
// Package matching defines the value objects the matching engine works on.
// They are built fresh per request by the converter package and never
// mutated by scoring or ranking.
package matching

import (
	"math"
	"time"

	"cuidly-matching/internal/matching/availability"
	"cuidly-matching/internal/matching/geo"
)

// CaregiverProfile is the supply side of a match.
type CaregiverProfile struct {
	ID string `json:"id"`

	Gender    *string    `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	IsSmoker  bool       `json:"isSmoker"`
	HasCnh    bool       `json:"hasCnh"`

	ExperienceYears                   *int       `json:"experienceYears,omitempty"`
	AgeRangesExperience               []AgeRange `json:"ageRangesExperience"`
	Certifications                    []string   `json:"certifications"`
	HasSpecialNeedsExperience         bool       `json:"hasSpecialNeedsExperience"`
	SpecialNeedsExperienceDescription *string    `json:"specialNeedsExperienceDescription,omitempty"`

	MaxChildrenCare     *int       `json:"maxChildrenCare,omitempty"`
	ComfortableWithPets PetComfort `json:"comfortableWithPets,omitempty"`

	AcceptedActivities    []string    `json:"acceptedActivities"`
	ActivitiesNotAccepted []string    `json:"activitiesNotAccepted"`
	CaregiverTypes        []string    `json:"caregiverTypes"`
	ContractRegimes       []string    `json:"contractRegimes"`
	HourlyRateRange       RateBracket `json:"hourlyRateRange,omitempty"`

	DocumentValidated        bool       `json:"documentValidated"`
	FacialValidated          bool       `json:"facialValidated"`
	BackgroundCheckValidated bool       `json:"backgroundCheckValidated"`
	ValidationExpiresAt      *time.Time `json:"validationExpiresAt,omitempty"`
	AverageRating            float64    `json:"averageRating"`
	ReviewCount              int        `json:"reviewCount"`
	LastActiveAt             *time.Time `json:"lastActiveAt,omitempty"`

	Location          *geo.Coordinates     `json:"location,omitempty"`
	MaxTravelDistance geo.TravelDistance   `json:"maxTravelDistance,omitempty"`
	Availability      availability.SlotSet `json:"availability"`
}

// JobRequest is a family's posting for a subset of its children.
type JobRequest struct {
	ID                    string        `json:"id"`
	FamilyID              string        `json:"familyId,omitempty"`
	MandatoryRequirements []Requirement `json:"mandatoryRequirements"`
	ChildrenIDs           []string      `json:"childrenIds"`
}

// FamilyProfile is the demand side of a match.
type FamilyProfile struct {
	ID                      string               `json:"id"`
	HasPets                 bool                 `json:"hasPets"`
	NumberOfChildren        *int                 `json:"numberOfChildren,omitempty"`
	PreferredCaregiverType  *string              `json:"preferredCaregiverType,omitempty"`
	PreferredContractRegime *string              `json:"preferredContractRegime,omitempty"`
	HourlyRateRange         RateBracket          `json:"hourlyRateRange,omitempty"`
	DomesticHelpExpected    []string             `json:"domesticHelpExpected"`
	Location                *geo.Coordinates     `json:"location,omitempty"`
	Availability            availability.SlotSet `json:"availability"`
}

// ChildRecord is a child covered by a job.
type ChildRecord struct {
	ID                      string     `json:"id"`
	BirthDate               *time.Time `json:"birthDate,omitempty"`
	ExpectedBirthDate       *time.Time `json:"expectedBirthDate,omitempty"`
	Unborn                  bool       `json:"unborn"`
	HasSpecialNeeds         bool       `json:"hasSpecialNeeds"`
	SpecialNeedsTypes       []string   `json:"specialNeedsTypes"`
	SpecialNeedsDescription *string    `json:"specialNeedsDescription,omitempty"`
}

// ReferenceBirthDate is the date age is measured from: the expected birth
// date for an unborn child, the birth date otherwise.
func (c ChildRecord) ReferenceBirthDate() *time.Time {
	if c.Unborn {
		if c.ExpectedBirthDate != nil {
			return c.ExpectedBirthDate
		}
		return c.BirthDate
	}
	if c.BirthDate != nil {
		return c.BirthDate
	}
	return c.ExpectedBirthDate
}

// AgeInMonths returns the child's age at now, clamped at zero for children
// not yet born. ok is false when no date is known.
func (c ChildRecord) AgeInMonths(now time.Time) (months int, ok bool) {
	born := c.ReferenceBirthDate()
	if born == nil {
		return 0, false
	}
	if !now.After(*born) {
		return 0, true
	}
	months = (now.Year()-born.Year())*12 + int(now.Month()) - int(born.Month())
	if now.Day() < born.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months, true
}

// ==========================
// Results
// ==========================

// ScoreComponent is one bounded sub-score.
type ScoreComponent struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
	Details  string  `json:"details,omitempty"`
}

// MatchBreakdown holds the ten scored dimensions.
type MatchBreakdown struct {
	AgeRange       ScoreComponent `json:"ageRange"`
	CaregiverType  ScoreComponent `json:"caregiverType"`
	Activities     ScoreComponent `json:"activities"`
	ContractRegime ScoreComponent `json:"contractRegime"`
	Availability   ScoreComponent `json:"availability"`
	ChildrenCount  ScoreComponent `json:"childrenCount"`
	TrustSeal      ScoreComponent `json:"trustSeal"`
	Reviews        ScoreComponent `json:"reviews"`
	DistanceBonus  ScoreComponent `json:"distanceBonus"`
	BudgetBonus    ScoreComponent `json:"budgetBonus"`
}

// Components returns the dimensions in a fixed order.
func (b MatchBreakdown) Components() []ScoreComponent {
	return []ScoreComponent{
		b.AgeRange, b.CaregiverType, b.Activities, b.ContractRegime, b.Availability,
		b.ChildrenCount, b.TrustSeal, b.Reviews, b.DistanceBonus, b.BudgetBonus,
	}
}

// MatchResult is the outcome of scoring one caregiver against one job.
// Score is always FitScore + TrustScore + BonusScore.
type MatchResult struct {
	CaregiverID        string         `json:"caregiverId"`
	Score              float64        `json:"score"`
	FitScore           float64        `json:"fitScore"`
	TrustScore         float64        `json:"trustScore"`
	BonusScore         float64        `json:"bonusScore"`
	IsEligible         bool           `json:"isEligible"`
	EliminationReasons []string       `json:"eliminationReasons"`
	FailedRequirements []Requirement  `json:"failedRequirements,omitempty"`
	DistanceKm         *float64       `json:"distanceKm,omitempty"`
	Breakdown          MatchBreakdown `json:"breakdown"`
}

// Rounded returns a copy with every number rounded to places decimals, for
// presentation only.
func (r MatchResult) Rounded(places int) MatchResult {
	p := math.Pow(10, float64(places))
	round := func(v float64) float64 { return math.Round(v*p) / p }
	roundComponent := func(c ScoreComponent) ScoreComponent {
		c.Score = round(c.Score)
		c.MaxScore = round(c.MaxScore)
		return c
	}

	out := r
	out.FitScore = round(r.FitScore)
	out.TrustScore = round(r.TrustScore)
	out.BonusScore = round(r.BonusScore)
	// Score is rebuilt from the rounded subtotals so the parts still add up.
	out.Score = round(out.FitScore + out.TrustScore + out.BonusScore)
	if r.DistanceKm != nil {
		km := round(*r.DistanceKm)
		out.DistanceKm = &km
	}
	out.EliminationReasons = append([]string{}, r.EliminationReasons...)
	if r.FailedRequirements != nil {
		out.FailedRequirements = append([]Requirement{}, r.FailedRequirements...)
	}

	b := r.Breakdown
	out.Breakdown = MatchBreakdown{
		AgeRange:       roundComponent(b.AgeRange),
		CaregiverType:  roundComponent(b.CaregiverType),
		Activities:     roundComponent(b.Activities),
		ContractRegime: roundComponent(b.ContractRegime),
		Availability:   roundComponent(b.Availability),
		ChildrenCount:  roundComponent(b.ChildrenCount),
		TrustSeal:      roundComponent(b.TrustSeal),
		Reviews:        roundComponent(b.Reviews),
		DistanceBonus:  roundComponent(b.DistanceBonus),
		BudgetBonus:    roundComponent(b.BudgetBonus),
	}
	return out
}
