// internal/matching/scoring/scoring.go
// Package scoring computes the match score and eligibility verdict for one
// caregiver against one job. Both phases always run so an ineligible
// caregiver still carries a full breakdown.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/availability"
	"cuidly-matching/internal/matching/geo"
)

// Scorer scores candidates with a fixed constants table. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer returns a Scorer over cfg.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

func (s *Scorer) Config() Config { return s.cfg }

var defaultScorer = NewScorer(DefaultConfig())

// Calculate scores with DefaultConfig. now is the reference date for child
// ages and validation expiry.
func Calculate(caregiver matching.CaregiverProfile, job matching.JobRequest, family matching.FamilyProfile, children []matching.ChildRecord, now time.Time) matching.MatchResult {
	return defaultScorer.Score(caregiver, job, family, children, now)
}

// Score runs eligibility and weighted scoring.
func (s *Scorer) Score(caregiver matching.CaregiverProfile, job matching.JobRequest, family matching.FamilyProfile, children []matching.ChildRecord, now time.Time) matching.MatchResult {
	result := matching.MatchResult{
		CaregiverID:        caregiver.ID,
		IsEligible:         true,
		EliminationReasons: []string{},
	}

	for _, req := range job.MandatoryRequirements {
		if reason, failed := s.checkRequirement(caregiver, req); failed {
			result.IsEligible = false
			result.EliminationReasons = append(result.EliminationReasons, reason)
			result.FailedRequirements = append(result.FailedRequirements, req)
		}
	}

	distance, distanceKnown := geo.DistanceKm(caregiver.Location, family.Location)
	if distanceKnown {
		km := distance
		result.DistanceKm = &km
	}

	b := matching.MatchBreakdown{
		AgeRange:       s.scoreAgeRange(caregiver, job, children, now),
		CaregiverType:  s.scoreCaregiverType(caregiver, family),
		Activities:     s.scoreActivities(caregiver, family),
		ContractRegime: s.scoreContractRegime(caregiver, family),
		Availability:   s.scoreAvailability(caregiver, family),
		ChildrenCount:  s.scoreChildrenCount(caregiver, family),
		TrustSeal:      s.scoreTrustSeal(caregiver, now),
		Reviews:        s.scoreReviews(caregiver),
		DistanceBonus:  s.scoreDistance(caregiver, distance, distanceKnown),
		BudgetBonus:    s.scoreBudget(caregiver, family),
	}
	result.Breakdown = b

	result.FitScore = math.Min(
		b.AgeRange.Score+b.CaregiverType.Score+b.Activities.Score+
			b.ContractRegime.Score+b.Availability.Score+b.ChildrenCount.Score,
		s.cfg.Caps.Fit)
	result.TrustScore = math.Min(b.TrustSeal.Score+b.Reviews.Score, s.cfg.Caps.Trust)
	result.BonusScore = math.Min(b.DistanceBonus.Score+b.BudgetBonus.Score, s.cfg.Caps.Bonus)
	result.Score = result.FitScore + result.TrustScore + result.BonusScore

	return result
}

// ==========================
// Phase A: eligibility
// ==========================

func (s *Scorer) checkRequirement(c matching.CaregiverProfile, req matching.Requirement) (string, bool) {
	if code, ok := req.Certification(); ok {
		for _, cert := range c.Certifications {
			if cert == code {
				return "", false
			}
		}
		return fmt.Sprintf("missing required certification %s", code), true
	}

	switch req {
	case matching.RequirementNonSmoker:
		if c.IsSmoker {
			return "caregiver is a smoker and the job requires a non-smoker", true
		}
	case matching.RequirementDriverLicense:
		if !c.HasCnh {
			return "caregiver has no driver's license (CNH)", true
		}
	case matching.RequirementPetFriendly:
		if c.ComfortableWithPets == matching.PetComfortNo {
			return "caregiver is not comfortable with pets", true
		}
	case matching.RequirementSpecialNeeds:
		if !c.HasSpecialNeedsExperience {
			return "caregiver has no special-needs experience", true
		}
	}
	return "", false
}

// ==========================
// Phase B: structural fit
// ==========================

func (s *Scorer) scoreAgeRange(c matching.CaregiverProfile, job matching.JobRequest, children []matching.ChildRecord, now time.Time) matching.ScoreComponent {
	full := s.cfg.MaxScores.AgeRange

	var ranges []matching.AgeRange
	for _, child := range jobChildren(job, children) {
		months, ok := child.AgeInMonths(now)
		if !ok {
			continue
		}
		r, _ := s.cfg.ageRangeFor(months)
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		return component(full, full, "no child ages to compare")
	}
	if len(c.AgeRangesExperience) == 0 {
		return component(0, full, "no declared age-range experience")
	}

	declared := make(map[matching.AgeRange]bool, len(c.AgeRangesExperience))
	for _, r := range c.AgeRangesExperience {
		declared[r] = true
	}
	covered := 0
	for _, r := range ranges {
		if r != "" && declared[r] {
			covered++
		}
	}
	return component(full*float64(covered)/float64(len(ranges)), full,
		fmt.Sprintf("experience covers %d of %d children", covered, len(ranges)))
}

// jobChildren keeps the children the job covers. Without child ids on the job
// every supplied child counts.
func jobChildren(job matching.JobRequest, children []matching.ChildRecord) []matching.ChildRecord {
	if len(job.ChildrenIDs) == 0 {
		return children
	}
	wanted := make(map[string]bool, len(job.ChildrenIDs))
	for _, id := range job.ChildrenIDs {
		wanted[id] = true
	}
	out := make([]matching.ChildRecord, 0, len(children))
	for _, child := range children {
		if wanted[child.ID] {
			out = append(out, child)
		}
	}
	return out
}

func (s *Scorer) scoreCaregiverType(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.CaregiverType
	if f.PreferredCaregiverType == nil {
		return component(full, full, "family has no type preference")
	}
	want := *f.PreferredCaregiverType
	if len(c.CaregiverTypes) == 0 {
		return component(full*s.cfg.PartialCredit.UndeclaredTypes, full, "caregiver declared no types")
	}
	if contains(c.CaregiverTypes, want) {
		return component(full, full, "offers "+want)
	}
	for _, t := range c.CaregiverTypes {
		if s.cfg.relatedTypes(t, want) {
			return component(full*s.cfg.PartialCredit.RelatedCaregiverType, full,
				fmt.Sprintf("offers %s, related to %s", t, want))
		}
	}
	return component(0, full, "does not offer "+want)
}

func (s *Scorer) scoreActivities(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.Activities
	if len(f.DomesticHelpExpected) == 0 {
		return component(full, full, "no domestic help expected")
	}

	accepted, refused := 0, 0
	for _, task := range f.DomesticHelpExpected {
		switch {
		case contains(c.ActivitiesNotAccepted, task):
			refused++
		case contains(c.AcceptedActivities, task):
			accepted++
		}
	}
	fraction := float64(accepted-refused) / float64(len(f.DomesticHelpExpected))
	return component(full*math.Max(0, fraction), full,
		fmt.Sprintf("accepts %d, refuses %d of %d tasks", accepted, refused, len(f.DomesticHelpExpected)))
}

func (s *Scorer) scoreContractRegime(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.ContractRegime
	if f.PreferredContractRegime == nil {
		return component(full, full, "family has no regime preference")
	}
	want := *f.PreferredContractRegime
	if len(c.ContractRegimes) == 0 {
		return component(full*s.cfg.PartialCredit.UndeclaredRegimes, full, "caregiver declared no regimes")
	}
	if contains(c.ContractRegimes, want) {
		return component(full, full, "accepts "+want)
	}
	return component(0, full, "does not accept "+want)
}

func (s *Scorer) scoreAvailability(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.Availability
	if f.Availability.Len() == 0 || c.Availability.Len() == 0 {
		return component(full, full, "no availability data")
	}
	shared := len(availability.Intersection(f.Availability, c.Availability))
	ratio := availability.OverlapRatio(f.Availability, c.Availability)
	return component(full*ratio, full, fmt.Sprintf("covers %d of %d needed slots", shared, f.Availability.Len()))
}

func (s *Scorer) scoreChildrenCount(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.ChildrenCount
	if f.NumberOfChildren == nil || *f.NumberOfChildren <= 0 {
		return component(full, full, "family did not declare children")
	}
	n := *f.NumberOfChildren
	if c.MaxChildrenCare == nil {
		return component(full, full, "caregiver did not declare capacity")
	}
	capacity := *c.MaxChildrenCare
	if capacity >= n {
		return component(full, full, fmt.Sprintf("cares for up to %d children", capacity))
	}
	return component(full*float64(max(capacity, 0))/float64(n), full,
		fmt.Sprintf("cares for up to %d of %d children", capacity, n))
}

// ==========================
// Trust
// ==========================

func (s *Scorer) scoreTrustSeal(c matching.CaregiverProfile, now time.Time) matching.ScoreComponent {
	full := s.cfg.MaxScores.TrustSeal
	tiers := s.cfg.TrustSeal
	switch {
	case !c.DocumentValidated:
		return component(0, full, "document not validated")
	case !c.FacialValidated:
		return component(tiers.Document, full, "document validated")
	case !c.BackgroundCheckValidated:
		return component(tiers.DocumentFacial, full, "document and facial validated")
	case c.ValidationExpiresAt != nil && !c.ValidationExpiresAt.After(now):
		return component(tiers.DocumentFacial, full, "background check expired")
	}
	return component(tiers.Full, full, "fully verified")
}

func (s *Scorer) scoreReviews(c matching.CaregiverProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.Reviews
	rc := s.cfg.Reviews
	if c.ReviewCount <= 0 {
		return component(rc.Neutral, full, "no reviews yet")
	}
	rating := math.Min(math.Max(c.AverageRating, 0), rc.MaxRating)
	implied := full * rating / rc.MaxRating
	n := float64(c.ReviewCount)
	weight := n / (n + rc.ConfidenceReviews)
	return component(rc.Neutral+(implied-rc.Neutral)*weight, full,
		fmt.Sprintf("%.1f average over %d reviews", c.AverageRating, c.ReviewCount))
}

// ==========================
// Bonus
// ==========================

func (s *Scorer) scoreDistance(c matching.CaregiverProfile, km float64, known bool) matching.ScoreComponent {
	full := s.cfg.MaxScores.DistanceBonus
	if !known {
		return component(0, full, "distance unknown")
	}
	ceiling, ok := geo.MaxTravelDistanceToKm(c.MaxTravelDistance)
	if !ok {
		ceiling = s.cfg.CityHorizonKm
	}
	if km > ceiling {
		return component(0, full, fmt.Sprintf("%.1f km exceeds %.0f km travel limit", km, ceiling))
	}
	return component(full*(1-km/ceiling), full, fmt.Sprintf("%.1f km away", km))
}

func (s *Scorer) scoreBudget(c matching.CaregiverProfile, f matching.FamilyProfile) matching.ScoreComponent {
	full := s.cfg.MaxScores.BudgetBonus
	familyPos, okFamily := s.cfg.Rates.Position(f.HourlyRateRange)
	caregiverPos, okCaregiver := s.cfg.Rates.Position(c.HourlyRateRange)
	if !okFamily || !okCaregiver {
		return component(0, full, "rate bracket unknown")
	}
	switch {
	case caregiverPos <= familyPos:
		return component(full, full, "within budget")
	case caregiverPos == familyPos+1:
		return component(full*s.cfg.PartialCredit.AdjacentBudget, full, "one bracket above budget")
	}
	return component(0, full, "above budget")
}

// ==========================
// Helpers
// ==========================

// component clamps score into [0, full].
func component(score, full float64, details string) matching.ScoreComponent {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > full {
		score = full
	}
	return matching.ScoreComponent{Score: score, MaxScore: full, Details: details}
}

func contains(list []string, v string) bool {
	v = strings.ToUpper(v)
	for _, item := range list {
		if strings.ToUpper(item) == v {
			return true
		}
	}
	return false
}
