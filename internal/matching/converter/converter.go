// internal/matching/converter/converter.go
// Package converter maps storage records onto matching value objects. Missing
// optional data resolves to nil or empty values; only a missing id is an error.
package converter

import (
	"errors"
	"fmt"
	"strings"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/availability"
	"cuidly-matching/internal/matching/geo"
	"cuidly-matching/internal/models"
)

var ErrMissingID = errors.New("record has no id")

type options struct {
	rates matching.RateTable
}

// Option customizes a conversion.
type Option func(*options)

// WithRateTable normalizes hourly-rate brackets against t instead of the
// default table.
func WithRateTable(t matching.RateTable) Option {
	return func(o *options) { o.rates = t }
}

func buildOptions(opts []Option) options {
	o := options{rates: matching.DefaultRateTable()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ConvertCaregiver builds a CaregiverProfile. stats may be nil when the
// caregiver has no reviews.
func ConvertCaregiver(rec models.CaregiverRecord, stats *models.ReviewStats, opts ...Option) (matching.CaregiverProfile, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return matching.CaregiverProfile{}, fmt.Errorf("caregiver: %w", ErrMissingID)
	}
	o := buildOptions(opts)

	p := matching.CaregiverProfile{
		ID:                                rec.ID,
		Gender:                            rec.Gender,
		BirthDate:                         rec.BirthDate,
		IsSmoker:                          boolValue(rec.IsSmoker),
		HasCnh:                            boolValue(rec.HasCnh),
		ExperienceYears:                   rec.ExperienceYears,
		AgeRangesExperience:               ageRanges(rec.AgeRangesExperience),
		Certifications:                    certifications(rec.Certifications),
		HasSpecialNeedsExperience:         boolValue(rec.HasSpecialNeedsExperience),
		SpecialNeedsExperienceDescription: rec.SpecialNeedsExperienceDescription,
		MaxChildrenCare:                   rec.MaxChildrenCare,
		AcceptedActivities:                tokens(rec.AcceptedActivities),
		ActivitiesNotAccepted:             tokens(rec.ActivitiesNotAccepted),
		CaregiverTypes:                    tokens(rec.CaregiverTypes),
		ContractRegimes:                   tokens(rec.ContractRegimes),
		DocumentValidated:                 boolValue(rec.DocumentValidated),
		FacialValidated:                   boolValue(rec.FacialValidated),
		BackgroundCheckValidated:          boolValue(rec.BackgroundCheckValidated),
		ValidationExpiresAt:               rec.ValidationExpiresAt,
		LastActiveAt:                      rec.LastActiveAt,
		Location:                          coordinates(rec.Latitude, rec.Longitude),
	}

	if rec.ComfortableWithPets != nil {
		if pc, ok := matching.ParsePetComfort(*rec.ComfortableWithPets); ok {
			p.ComfortableWithPets = pc
		}
	}
	if rec.HourlyRateRange != nil {
		if b, ok := o.rates.Normalize(*rec.HourlyRateRange); ok {
			p.HourlyRateRange = b
		}
	}
	if rec.MaxTravelDistance != nil {
		if td, ok := geo.ParseTravelDistance(*rec.MaxTravelDistance); ok {
			p.MaxTravelDistance = td
		}
	}
	if stats != nil {
		p.AverageRating = stats.AverageRating
		p.ReviewCount = stats.ReviewCount
	}

	// An unreadable schedule is treated as missing availability.
	p.Availability = availability.SlotSet{}
	if schedule, err := availability.ParseWeeklySchedule(rec.Availability); err == nil {
		p.Availability = availability.ScheduleToSlots(schedule)
	}

	return p, nil
}

// ConvertFamily builds a FamilyProfile. Availability is the cross product of
// the needed days and shifts.
func ConvertFamily(rec models.FamilyRecord, opts ...Option) (matching.FamilyProfile, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return matching.FamilyProfile{}, fmt.Errorf("family: %w", ErrMissingID)
	}
	o := buildOptions(opts)

	p := matching.FamilyProfile{
		ID:                      rec.ID,
		HasPets:                 boolValue(rec.HasPets),
		NumberOfChildren:        rec.NumberOfChildren,
		PreferredCaregiverType:  optionalToken(rec.PreferredCaregiverType),
		PreferredContractRegime: optionalToken(rec.PreferredContractRegime),
		DomesticHelpExpected:    tokens(rec.DomesticHelpExpected),
		Location:                coordinates(rec.Latitude, rec.Longitude),
	}
	if rec.HourlyRateRange != nil {
		if b, ok := o.rates.Normalize(*rec.HourlyRateRange); ok {
			p.HourlyRateRange = b
		}
	}

	var days []availability.Day
	for _, raw := range rec.NeededDays {
		if d, ok := availability.ParseDay(raw); ok {
			days = append(days, d)
		}
	}
	var shifts []availability.Shift
	for _, raw := range rec.NeededShifts {
		if sh, ok := availability.ParseShift(raw); ok {
			shifts = append(shifts, sh)
		}
	}
	p.Availability = availability.ArraysToSlots(days, shifts)

	return p, nil
}

// ConvertJob builds a JobRequest. Unrecognized requirement tags are dropped.
func ConvertJob(rec models.JobRecord) (matching.JobRequest, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return matching.JobRequest{}, fmt.Errorf("job: %w", ErrMissingID)
	}

	job := matching.JobRequest{
		ID:                    rec.ID,
		FamilyID:              rec.FamilyID,
		MandatoryRequirements: []matching.Requirement{},
		ChildrenIDs:           append([]string{}, rec.ChildrenIDs...),
	}
	seen := map[matching.Requirement]bool{}
	for _, raw := range rec.MandatoryRequirements {
		r, ok := matching.NormalizeRequirement(raw)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		job.MandatoryRequirements = append(job.MandatoryRequirements, r)
	}
	return job, nil
}

func ConvertChild(rec models.ChildRecord) (matching.ChildRecord, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return matching.ChildRecord{}, fmt.Errorf("child: %w", ErrMissingID)
	}
	return matching.ChildRecord{
		ID:                      rec.ID,
		BirthDate:               rec.BirthDate,
		ExpectedBirthDate:       rec.ExpectedBirthDate,
		Unborn:                  boolValue(rec.Unborn),
		HasSpecialNeeds:         boolValue(rec.HasSpecialNeeds),
		SpecialNeedsTypes:       tokens(rec.SpecialNeedsTypes),
		SpecialNeedsDescription: rec.SpecialNeedsDescription,
	}, nil
}

// ConvertChildren converts every record, failing on the first one without an id.
func ConvertChildren(recs []models.ChildRecord) ([]matching.ChildRecord, error) {
	out := make([]matching.ChildRecord, 0, len(recs))
	for _, rec := range recs {
		c, err := ConvertChild(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ==========================
// Helpers
// ==========================

func boolValue(b *bool) bool {
	return b != nil && *b
}

func coordinates(lat, lng *float64) *geo.Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Coordinates{Latitude: *lat, Longitude: *lng}
}

// tokens upper-cases and trims tags, dropping blanks and duplicates.
func tokens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func optionalToken(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.ToUpper(strings.TrimSpace(*s))
	if t == "" {
		return nil
	}
	return &t
}

func ageRanges(in []string) []matching.AgeRange {
	out := make([]matching.AgeRange, 0, len(in))
	seen := map[matching.AgeRange]bool{}
	for _, raw := range in {
		r, ok := matching.ParseAgeRange(raw)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func certifications(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, raw := range in {
		c := matching.NormalizeCertification(raw)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
