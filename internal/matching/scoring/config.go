// internal/matching/scoring/config.go
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"cuidly-matching/internal/matching"
)

// Config is the single table of tunable scoring constants. Field tags let
// viper overlay a yaml section onto DefaultConfig.
type Config struct {
	MaxScores             MaxScores          `mapstructure:"max_scores" json:"maxScores"`
	Caps                  Caps               `mapstructure:"caps" json:"caps"`
	AgeBrackets           []AgeBracket       `mapstructure:"age_brackets" json:"ageBrackets"`
	Rates                 matching.RateTable `mapstructure:"rates" json:"rates"`
	TrustSeal             TrustSealTiers     `mapstructure:"trust_seal" json:"trustSeal"`
	Reviews               ReviewConstants    `mapstructure:"reviews" json:"reviews"`
	PartialCredit         PartialCredit      `mapstructure:"partial_credit" json:"partialCredit"`
	RelatedCaregiverTypes []TypePair         `mapstructure:"related_caregiver_types" json:"relatedCaregiverTypes"`
	// CityHorizonKm stands in for the travel ceiling of caregivers who cover
	// the entire city or declared no radius.
	CityHorizonKm float64 `mapstructure:"city_horizon_km" json:"cityHorizonKm"`
}

type MaxScores struct {
	AgeRange       float64 `mapstructure:"age_range" json:"ageRange"`
	CaregiverType  float64 `mapstructure:"caregiver_type" json:"caregiverType"`
	Activities     float64 `mapstructure:"activities" json:"activities"`
	ContractRegime float64 `mapstructure:"contract_regime" json:"contractRegime"`
	Availability   float64 `mapstructure:"availability" json:"availability"`
	ChildrenCount  float64 `mapstructure:"children_count" json:"childrenCount"`
	TrustSeal      float64 `mapstructure:"trust_seal" json:"trustSeal"`
	Reviews        float64 `mapstructure:"reviews" json:"reviews"`
	DistanceBonus  float64 `mapstructure:"distance_bonus" json:"distanceBonus"`
	BudgetBonus    float64 `mapstructure:"budget_bonus" json:"budgetBonus"`
}

// Caps bound the three subtotals.
type Caps struct {
	Fit   float64 `mapstructure:"fit" json:"fit"`
	Trust float64 `mapstructure:"trust" json:"trust"`
	Bonus float64 `mapstructure:"bonus" json:"bonus"`
}

// AgeBracket maps a child's age in months to an AgeRange. MaxMonths is
// exclusive; zero means no upper bound.
type AgeBracket struct {
	Range     matching.AgeRange `mapstructure:"range" json:"range"`
	MinMonths int               `mapstructure:"min_months" json:"minMonths"`
	MaxMonths int               `mapstructure:"max_months" json:"maxMonths"`
}

func (b AgeBracket) contains(months int) bool {
	return months >= b.MinMonths && (b.MaxMonths == 0 || months < b.MaxMonths)
}

// TrustSealTiers are the cumulative seal scores.
type TrustSealTiers struct {
	Document       float64 `mapstructure:"document" json:"document"`
	DocumentFacial float64 `mapstructure:"document_facial" json:"documentFacial"`
	Full           float64 `mapstructure:"full" json:"full"`
}

// ReviewConstants shape the reviews curve: with n reviews at rating r the
// score moves from Neutral toward max*r/MaxRating with weight n/(n+ConfidenceReviews).
type ReviewConstants struct {
	Neutral           float64 `mapstructure:"neutral" json:"neutral"`
	ConfidenceReviews float64 `mapstructure:"confidence_reviews" json:"confidenceReviews"`
	MaxRating         float64 `mapstructure:"max_rating" json:"maxRating"`
}

// PartialCredit fractions of a dimension's max score.
type PartialCredit struct {
	RelatedCaregiverType float64 `mapstructure:"related_caregiver_type" json:"relatedCaregiverType"`
	UndeclaredTypes      float64 `mapstructure:"undeclared_types" json:"undeclaredTypes"`
	UndeclaredRegimes    float64 `mapstructure:"undeclared_regimes" json:"undeclaredRegimes"`
	AdjacentBudget       float64 `mapstructure:"adjacent_budget" json:"adjacentBudget"`
}

// TypePair marks two caregiver types as interchangeable for partial credit.
type TypePair struct {
	A string `mapstructure:"a" json:"a"`
	B string `mapstructure:"b" json:"b"`
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		MaxScores: MaxScores{
			AgeRange:       25,
			CaregiverType:  15,
			Activities:     15,
			ContractRegime: 10,
			Availability:   10,
			ChildrenCount:  5,
			TrustSeal:      8,
			Reviews:        12,
			DistanceBonus:  5,
			BudgetBonus:    5,
		},
		Caps: Caps{Fit: 80, Trust: 20, Bonus: 10},
		AgeBrackets: []AgeBracket{
			{Range: matching.AgeNewborn, MinMonths: 0, MaxMonths: 6},
			{Range: matching.AgeBaby, MinMonths: 6, MaxMonths: 24},
			{Range: matching.AgeToddler, MinMonths: 24, MaxMonths: 48},
			{Range: matching.AgePreschool, MinMonths: 48, MaxMonths: 72},
			{Range: matching.AgeSchoolAge, MinMonths: 72, MaxMonths: 156},
			{Range: matching.AgeTeenager, MinMonths: 156},
		},
		Rates:     matching.DefaultRateTable(),
		TrustSeal: TrustSealTiers{Document: 3, DocumentFacial: 6, Full: 8},
		Reviews:   ReviewConstants{Neutral: 6, ConfidenceReviews: 5, MaxRating: 5},
		PartialCredit: PartialCredit{
			RelatedCaregiverType: 0.5,
			UndeclaredTypes:      0.5,
			UndeclaredRegimes:    0.5,
			AdjacentBudget:       0.5,
		},
		RelatedCaregiverTypes: []TypePair{
			{A: "NANNY", B: "NANNY_HOUSEKEEPER"},
			{A: "NANNY", B: "BABYSITTER"},
		},
		CityHorizonKm: 30,
	}
}

// Normalize canonicalizes names that may arrive lower-cased from config
// files and orders the age brackets.
func (c *Config) Normalize() {
	c.Rates.Canonicalize()
	for i := range c.AgeBrackets {
		if r, ok := matching.ParseAgeRange(string(c.AgeBrackets[i].Range)); ok {
			c.AgeBrackets[i].Range = r
		}
	}
	sort.SliceStable(c.AgeBrackets, func(i, j int) bool {
		return c.AgeBrackets[i].MinMonths < c.AgeBrackets[j].MinMonths
	})
	for i := range c.RelatedCaregiverTypes {
		c.RelatedCaregiverTypes[i].A = strings.ToUpper(strings.TrimSpace(c.RelatedCaregiverTypes[i].A))
		c.RelatedCaregiverTypes[i].B = strings.ToUpper(strings.TrimSpace(c.RelatedCaregiverTypes[i].B))
	}
}

// Validate rejects tables that would break the score bounds.
func (c Config) Validate() error {
	maxes := map[string]float64{
		"age_range":       c.MaxScores.AgeRange,
		"caregiver_type":  c.MaxScores.CaregiverType,
		"activities":      c.MaxScores.Activities,
		"contract_regime": c.MaxScores.ContractRegime,
		"availability":    c.MaxScores.Availability,
		"children_count":  c.MaxScores.ChildrenCount,
		"trust_seal":      c.MaxScores.TrustSeal,
		"reviews":         c.MaxScores.Reviews,
		"distance_bonus":  c.MaxScores.DistanceBonus,
		"budget_bonus":    c.MaxScores.BudgetBonus,
	}
	for name, v := range maxes {
		if v < 0 {
			return fmt.Errorf("max score %s must not be negative", name)
		}
	}
	if c.Caps.Fit <= 0 || c.Caps.Trust <= 0 || c.Caps.Bonus <= 0 {
		return fmt.Errorf("subtotal caps must be positive")
	}
	if len(c.AgeBrackets) == 0 {
		return fmt.Errorf("at least one age bracket is required")
	}
	if len(c.Rates.Current) == 0 {
		return fmt.Errorf("rate table has no current brackets")
	}
	for name, r := range c.Rates.Current {
		if r.Max != 0 && r.Max < r.Min {
			return fmt.Errorf("rate bracket %s has max below min", name)
		}
	}
	t := c.TrustSeal
	if t.Document < 0 || t.DocumentFacial < t.Document || t.Full < t.DocumentFacial || t.Full > c.MaxScores.TrustSeal {
		return fmt.Errorf("trust seal tiers must be increasing and within the trust seal max")
	}
	if c.Reviews.Neutral < 0 || c.Reviews.Neutral > c.MaxScores.Reviews {
		return fmt.Errorf("neutral review score must be within the reviews max")
	}
	if c.Reviews.ConfidenceReviews <= 0 || c.Reviews.MaxRating <= 0 {
		return fmt.Errorf("review confidence and max rating must be positive")
	}
	p := c.PartialCredit
	for _, f := range []float64{p.RelatedCaregiverType, p.UndeclaredTypes, p.UndeclaredRegimes, p.AdjacentBudget} {
		if f < 0 || f > 1 {
			return fmt.Errorf("partial credit fractions must be between 0 and 1")
		}
	}
	if c.CityHorizonKm <= 0 {
		return fmt.Errorf("city horizon must be positive")
	}
	return nil
}

func (c Config) ageRangeFor(months int) (matching.AgeRange, bool) {
	for _, b := range c.AgeBrackets {
		if b.contains(months) {
			return b.Range, true
		}
	}
	return "", false
}

func (c Config) relatedTypes(a, b string) bool {
	for _, p := range c.RelatedCaregiverTypes {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return true
		}
	}
	return false
}
