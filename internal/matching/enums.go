// internal/matching/enums.go
package matching

import (
	"sort"
	"strings"
)

func normalizeToken(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

// ==========================
// Age ranges
// ==========================

// AgeRange is an age bracket a caregiver declares experience with.
type AgeRange string

const (
	AgeNewborn   AgeRange = "NEWBORN"
	AgeBaby      AgeRange = "BABY"
	AgeToddler   AgeRange = "TODDLER"
	AgePreschool AgeRange = "PRESCHOOL"
	AgeSchoolAge AgeRange = "SCHOOL_AGE"
	AgeTeenager  AgeRange = "TEENAGER"
)

var ageRangeAliases = map[string]AgeRange{
	"NEWBORN":    AgeNewborn,
	"BABY":       AgeBaby,
	"INFANT":     AgeBaby,
	"TODDLER":    AgeToddler,
	"PRESCHOOL":  AgePreschool,
	"PRE_SCHOOL": AgePreschool,
	"SCHOOL_AGE": AgeSchoolAge,
	"SCHOOL":     AgeSchoolAge,
	"TEENAGER":   AgeTeenager,
	"TEEN":       AgeTeenager,
}

// ParseAgeRange normalizes an age-range token, including legacy spellings.
func ParseAgeRange(s string) (AgeRange, bool) {
	r, ok := ageRangeAliases[normalizeToken(s)]
	return r, ok
}

// ==========================
// Pets
// ==========================

// PetComfort is how comfortable a caregiver is around pets. Empty means
// unknown.
type PetComfort string

const (
	PetComfortYes     PetComfort = "YES"
	PetComfortNo      PetComfort = "NO"
	PetComfortDepends PetComfort = "DEPENDS"
)

// ParsePetComfort normalizes a stored pet-comfort value.
func ParsePetComfort(s string) (PetComfort, bool) {
	switch normalizeToken(s) {
	case "YES", "TRUE":
		return PetComfortYes, true
	case "NO", "FALSE":
		return PetComfortNo, true
	case "DEPENDS", "SOME", "SMALL_PETS_ONLY":
		return PetComfortDepends, true
	}
	return "", false
}

// ==========================
// Requirements
// ==========================

// Requirement is a mandatory job requirement tag.
type Requirement string

const (
	RequirementNonSmoker     Requirement = "NON_SMOKER"
	RequirementDriverLicense Requirement = "HAS_CNH"
	RequirementPetFriendly   Requirement = "COMFORTABLE_WITH_PETS"
	RequirementSpecialNeeds  Requirement = "SPECIAL_NEEDS_EXPERIENCE"
)

// certificationRequirement prefixes requirement tags that ask for a
// certification code, e.g. CERT_FIRST_AID.
const certificationRequirement = "CERT_"

var requirementAliases = map[string]Requirement{
	"NON_SMOKER":                RequirementNonSmoker,
	"NONSMOKER":                 RequirementNonSmoker,
	"NO_SMOKING":                RequirementNonSmoker,
	"HAS_CNH":                   RequirementDriverLicense,
	"CNH":                       RequirementDriverLicense,
	"DRIVER_LICENSE":            RequirementDriverLicense,
	"DRIVERS_LICENSE":           RequirementDriverLicense,
	"COMFORTABLE_WITH_PETS":     RequirementPetFriendly,
	"PET_FRIENDLY":              RequirementPetFriendly,
	"PETS":                      RequirementPetFriendly,
	"SPECIAL_NEEDS_EXPERIENCE":  RequirementSpecialNeeds,
	"SPECIAL_NEEDS":             RequirementSpecialNeeds,
	"FIRST_AID":                 "CERT_FIRST_AID",
	"PEDIATRIC_FIRST_AID":       "CERT_PEDIATRIC_FIRST_AID",
	"CPR":                       "CERT_CPR",
	"NURSING_TECHNICIAN":        "CERT_NURSING_TECHNICIAN",
	"EARLY_CHILDHOOD_EDUCATION": "CERT_EARLY_CHILDHOOD_EDUCATION",
}

// NormalizeRequirement maps a stored tag to its canonical requirement.
// Unknown tags return ok=false.
func NormalizeRequirement(raw string) (Requirement, bool) {
	token := normalizeToken(raw)
	if r, ok := requirementAliases[token]; ok {
		return r, true
	}
	if strings.HasPrefix(token, certificationRequirement) && len(token) > len(certificationRequirement) {
		return Requirement(token), true
	}
	return "", false
}

// Certification returns the certification code a requirement asks for.
func (r Requirement) Certification() (string, bool) {
	s := string(r)
	if !strings.HasPrefix(s, certificationRequirement) {
		return "", false
	}
	return strings.TrimPrefix(s, certificationRequirement), true
}

// NormalizeCertification canonicalizes a caregiver certification code so it
// compares equal to Requirement.Certification.
func NormalizeCertification(raw string) string {
	return strings.TrimPrefix(normalizeToken(raw), certificationRequirement)
}

// ==========================
// Hourly rate brackets
// ==========================

// RateBracket is an hourly-rate category in the current naming.
type RateBracket string

const (
	RateUpTo25     RateBracket = "UP_TO_25"
	RateFrom26To35 RateBracket = "FROM_26_TO_35"
	RateFrom36To45 RateBracket = "FROM_36_TO_45"
	RateFrom46To60 RateBracket = "FROM_46_TO_60"
	RateFrom61To80 RateBracket = "FROM_61_TO_80"
	RateOver80     RateBracket = "OVER_80"
)

// RateRange is a numeric hourly-rate range. Max zero means open-ended.
type RateRange struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Contains reports whether v falls inside the range.
func (r RateRange) Contains(v float64) bool {
	return v >= r.Min && (r.Max == 0 || v <= r.Max)
}

// RateTable maps current and legacy bracket names to numeric ranges.
type RateTable struct {
	Current map[RateBracket]RateRange `mapstructure:"current" json:"current"`
	Legacy  map[string]RateRange      `mapstructure:"legacy" json:"legacy"`
}

// DefaultRateTable is the production bracket table.
func DefaultRateTable() RateTable {
	return RateTable{
		Current: map[RateBracket]RateRange{
			RateUpTo25:     {Min: 0, Max: 25},
			RateFrom26To35: {Min: 26, Max: 35},
			RateFrom36To45: {Min: 36, Max: 45},
			RateFrom46To60: {Min: 46, Max: 60},
			RateFrom61To80: {Min: 61, Max: 80},
			RateOver80:     {Min: 81},
		},
		Legacy: map[string]RateRange{
			"UP_TO_20":      {Min: 0, Max: 20},
			"FROM_21_TO_30": {Min: 21, Max: 30},
			"FROM_31_TO_40": {Min: 31, Max: 40},
			"FROM_41_TO_50": {Min: 41, Max: 50},
			"FROM_51_TO_70": {Min: 51, Max: 70},
			"ABOVE_70":      {Min: 71},
		},
	}
}

// Canonicalize upper-cases bracket names. Keys that were not already upper
// case (config overrides arrive lower-cased) win over existing ones.
func (t *RateTable) Canonicalize() {
	current := make(map[RateBracket]RateRange, len(t.Current))
	var overrides []RateBracket
	for k := range t.Current {
		if RateBracket(normalizeToken(string(k))) == k {
			current[k] = t.Current[k]
		} else {
			overrides = append(overrides, k)
		}
	}
	for _, k := range overrides {
		current[RateBracket(normalizeToken(string(k)))] = t.Current[k]
	}

	legacy := make(map[string]RateRange, len(t.Legacy))
	var legacyOverrides []string
	for k := range t.Legacy {
		if normalizeToken(k) == k {
			legacy[k] = t.Legacy[k]
		} else {
			legacyOverrides = append(legacyOverrides, k)
		}
	}
	for _, k := range legacyOverrides {
		legacy[normalizeToken(k)] = t.Legacy[k]
	}

	t.Current = current
	t.Legacy = legacy
}

// Ordered returns the current brackets from cheapest to most expensive.
func (t RateTable) Ordered() []RateBracket {
	out := make([]RateBracket, 0, len(t.Current))
	for b := range t.Current {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := t.Current[out[i]], t.Current[out[j]]
		if ri.Min != rj.Min {
			return ri.Min < rj.Min
		}
		return out[i] < out[j]
	})
	return out
}

// Position returns the index of b in Ordered.
func (t RateTable) Position(b RateBracket) (int, bool) {
	for i, candidate := range t.Ordered() {
		if candidate == b {
			return i, true
		}
	}
	return 0, false
}

// Normalize resolves a stored bracket name, current or legacy, to a current
// bracket. A legacy bracket maps to the current bracket containing its upper
// bound, or its lower bound when it is open-ended.
func (t RateTable) Normalize(raw string) (RateBracket, bool) {
	token := normalizeToken(raw)
	if token == "" {
		return "", false
	}
	if _, ok := t.Current[RateBracket(token)]; ok {
		return RateBracket(token), true
	}
	legacy, ok := t.Legacy[token]
	if !ok {
		return "", false
	}
	anchor := legacy.Max
	if anchor == 0 {
		anchor = legacy.Min
	}
	for _, b := range t.Ordered() {
		if t.Current[b].Contains(anchor) {
			return b, true
		}
	}
	return "", false
}
