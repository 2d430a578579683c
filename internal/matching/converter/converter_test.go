package converter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/availability"
	"cuidly-matching/internal/matching/geo"
	"cuidly-matching/internal/models"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestConvertCaregiver(t *testing.T) {
	tests := []struct {
		name           string
		record         models.CaregiverRecord
		stats          *models.ReviewStats
		opts           []Option
		wantErr        error
		validateOutput func(t *testing.T, p matching.CaregiverProfile)
	}{
		{
			name: "full record",
			record: models.CaregiverRecord{
				ID:                  "cg-1",
				IsSmoker:            boolPtr(false),
				HasCnh:              boolPtr(true),
				AgeRangesExperience: []string{"toddler", "INFANT", "unknown", "BABY"},
				Certifications:      []string{"first_aid", "CERT_CPR", " "},
				ComfortableWithPets: strPtr("depends"),
				CaregiverTypes:      []string{"nanny", "NANNY"},
				HourlyRateRange:     strPtr("FROM_26_TO_35"),
				Latitude:            floatPtr(-23.56),
				Longitude:           floatPtr(-46.65),
				MaxTravelDistance:   strPtr("UP_TO_10KM"),
				Availability: json.RawMessage(`{
					"monday": {"enabled": true, "startTime": "08:00", "endTime": "12:00"}
				}`),
			},
			stats: &models.ReviewStats{AverageRating: 4.8, ReviewCount: 20},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.Equal(t, "cg-1", p.ID)
				assert.False(t, p.IsSmoker)
				assert.True(t, p.HasCnh)
				assert.Equal(t, []matching.AgeRange{matching.AgeToddler, matching.AgeBaby}, p.AgeRangesExperience)
				assert.Equal(t, []string{"FIRST_AID", "CPR"}, p.Certifications)
				assert.Equal(t, matching.PetComfortDepends, p.ComfortableWithPets)
				assert.Equal(t, []string{"NANNY"}, p.CaregiverTypes)
				assert.Equal(t, matching.RateFrom26To35, p.HourlyRateRange)
				require.NotNil(t, p.Location)
				assert.Equal(t, -23.56, p.Location.Latitude)
				assert.Equal(t, geo.UpTo10Km, p.MaxTravelDistance)
				assert.Equal(t, 4.8, p.AverageRating)
				assert.Equal(t, 20, p.ReviewCount)
				assert.Equal(t, []availability.Slot{"MONDAY_MORNING"}, p.Availability.Sorted())
			},
		},
		{
			name:   "sparse record defaults",
			record: models.CaregiverRecord{ID: "cg-2", Latitude: floatPtr(-23.5)},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.False(t, p.IsSmoker)
				assert.Nil(t, p.Location)
				assert.Empty(t, p.AgeRangesExperience)
				assert.NotNil(t, p.AcceptedActivities)
				assert.Equal(t, matching.RateBracket(""), p.HourlyRateRange)
				assert.Equal(t, matching.PetComfort(""), p.ComfortableWithPets)
				assert.Equal(t, 0, p.ReviewCount)
				assert.Equal(t, 0, p.Availability.Len())
			},
		},
		{
			name: "legacy rate bracket normalized",
			record: models.CaregiverRecord{
				ID:              "cg-3",
				HourlyRateRange: strPtr("ABOVE_70"),
			},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.Equal(t, matching.RateFrom61To80, p.HourlyRateRange)
			},
		},
		{
			name: "unknown enums resolve to empty",
			record: models.CaregiverRecord{
				ID:                  "cg-4",
				HourlyRateRange:     strPtr("PRICELESS"),
				MaxTravelDistance:   strPtr("ANYWHERE"),
				ComfortableWithPets: strPtr("maybe"),
			},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.Empty(t, p.HourlyRateRange)
				assert.Empty(t, p.MaxTravelDistance)
				assert.Empty(t, p.ComfortableWithPets)
			},
		},
		{
			name: "corrupt schedule is no data",
			record: models.CaregiverRecord{
				ID:           "cg-5",
				Availability: json.RawMessage(`"always"`),
			},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.NotNil(t, p.Availability)
				assert.Equal(t, 0, p.Availability.Len())
			},
		},
		{
			name: "custom rate table",
			record: models.CaregiverRecord{
				ID:              "cg-6",
				HourlyRateRange: strPtr("PREMIUM"),
			},
			opts: []Option{WithRateTable(matching.RateTable{
				Current: map[matching.RateBracket]matching.RateRange{"PREMIUM": {Min: 100}},
			})},
			validateOutput: func(t *testing.T, p matching.CaregiverProfile) {
				assert.Equal(t, matching.RateBracket("PREMIUM"), p.HourlyRateRange)
			},
		},
		{
			name:    "missing id",
			record:  models.CaregiverRecord{ID: "  "},
			wantErr: ErrMissingID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ConvertCaregiver(tt.record, tt.stats, tt.opts...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Contains(t, err.Error(), "caregiver")
				return
			}
			require.NoError(t, err)
			tt.validateOutput(t, p)
		})
	}
}

func TestConvertFamily(t *testing.T) {
	rec := models.FamilyRecord{
		ID:                     "fam-1",
		HasPets:                boolPtr(true),
		NumberOfChildren:       intPtr(2),
		PreferredCaregiverType: strPtr(" nanny "),
		HourlyRateRange:        strPtr("FROM_31_TO_40"),
		DomesticHelpExpected:   []string{"cooking", "laundry"},
		Latitude:               floatPtr(-23.56),
		Longitude:              floatPtr(-46.65),
		NeededDays:             []string{"monday", "tuesday", "someday"},
		NeededShifts:           []string{"MORNING"},
	}

	p, err := ConvertFamily(rec)
	require.NoError(t, err)
	assert.True(t, p.HasPets)
	assert.Equal(t, 2, *p.NumberOfChildren)
	assert.Equal(t, "NANNY", *p.PreferredCaregiverType)
	assert.Nil(t, p.PreferredContractRegime)
	assert.Equal(t, matching.RateFrom36To45, p.HourlyRateRange)
	assert.Equal(t, []string{"COOKING", "LAUNDRY"}, p.DomesticHelpExpected)
	assert.NotNil(t, p.Location)
	assert.Equal(t, []availability.Slot{"MONDAY_MORNING", "TUESDAY_MORNING"}, p.Availability.Sorted())

	_, err = ConvertFamily(models.FamilyRecord{})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestConvertFamily_NoShiftsMeansNoData(t *testing.T) {
	p, err := ConvertFamily(models.FamilyRecord{ID: "fam-2", NeededDays: []string{"MONDAY"}})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Availability.Len())
}

func TestConvertJob(t *testing.T) {
	job, err := ConvertJob(models.JobRecord{
		ID:                    "job-1",
		FamilyID:              "fam-1",
		MandatoryRequirements: []string{"no_smoking", "NON_SMOKER", "CNH", "first_aid", "CERT_CPR", "ASTRONAUT"},
		ChildrenIDs:           []string{"child-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []matching.Requirement{
		matching.RequirementNonSmoker,
		matching.RequirementDriverLicense,
		"CERT_FIRST_AID",
		"CERT_CPR",
	}, job.MandatoryRequirements)
	assert.Equal(t, []string{"child-1"}, job.ChildrenIDs)

	_, err = ConvertJob(models.JobRecord{FamilyID: "fam-1"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestConvertChildren(t *testing.T) {
	born := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	children, err := ConvertChildren([]models.ChildRecord{
		{ID: "c1", BirthDate: &born},
		{ID: "c2", Unborn: boolPtr(true), ExpectedBirthDate: &born, HasSpecialNeeds: boolPtr(true), SpecialNeedsTypes: []string{"autism"}},
	})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.False(t, children[0].Unborn)
	assert.True(t, children[1].Unborn)
	assert.Equal(t, []string{"AUTISM"}, children[1].SpecialNeedsTypes)

	_, err = ConvertChildren([]models.ChildRecord{{ID: "c1"}, {}})
	assert.ErrorIs(t, err, ErrMissingID)
}
