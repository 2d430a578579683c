// internal/workers/matching/load-match-context/queries.go
package loadmatchcontext

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"cuidly-matching/internal/models"
)

const (
	jobQuery = `
		SELECT id, family_id, mandatory_requirements, children_ids, status
		FROM jobs
		WHERE id = $1`

	familyQuery = `
		SELECT id, has_pets, number_of_children, preferred_caregiver_type,
		       preferred_contract_regime, hourly_rate_range, domestic_help_expected,
		       latitude, longitude, needed_days, needed_shifts
		FROM families
		WHERE id = $1`

	childrenQuery = `
		SELECT id, family_id, birth_date, expected_birth_date, unborn,
		       has_special_needs, special_needs_types, special_needs_description
		FROM children
		WHERE family_id = $1
		ORDER BY id`

	caregiversQuery = `
		SELECT id, gender, birth_date, is_smoker, has_cnh,
		       experience_years, age_ranges_experience, certifications,
		       has_special_needs_experience, special_needs_experience_description,
		       max_children_care, comfortable_with_pets,
		       accepted_activities, activities_not_accepted, caregiver_types,
		       contract_regimes, hourly_rate_range,
		       document_validated, facial_validated, background_check_validated,
		       validation_expires_at, last_active_at,
		       latitude, longitude, max_travel_distance, availability
		FROM caregivers
		WHERE id = ANY($1)
		ORDER BY id`

	reviewStatsQuery = `
		SELECT caregiver_id, average_rating, review_count
		FROM caregiver_review_stats
		WHERE caregiver_id = ANY($1)`
)

func fetchJob(ctx context.Context, db *sql.DB, jobID string) (*models.JobRecord, error) {
	var job models.JobRecord
	var status sql.NullString
	err := db.QueryRowContext(ctx, jobQuery, jobID).Scan(
		&job.ID, &job.FamilyID,
		pq.Array(&job.MandatoryRequirements), pq.Array(&job.ChildrenIDs),
		&status,
	)
	if err != nil {
		return nil, err
	}
	job.Status = status.String
	return &job, nil
}

func fetchFamily(ctx context.Context, db *sql.DB, familyID string) (*models.FamilyRecord, error) {
	var f models.FamilyRecord
	err := db.QueryRowContext(ctx, familyQuery, familyID).Scan(
		&f.ID, &f.HasPets, &f.NumberOfChildren, &f.PreferredCaregiverType,
		&f.PreferredContractRegime, &f.HourlyRateRange, pq.Array(&f.DomesticHelpExpected),
		&f.Latitude, &f.Longitude, pq.Array(&f.NeededDays), pq.Array(&f.NeededShifts),
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// fetchChildren loads the family's children, narrowed to ids when the job
// names any.
func fetchChildren(ctx context.Context, db *sql.DB, familyID string, ids []string) ([]models.ChildRecord, error) {
	rows, err := db.QueryContext(ctx, childrenQuery, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	children := []models.ChildRecord{}
	for rows.Next() {
		var c models.ChildRecord
		if err := rows.Scan(
			&c.ID, &c.FamilyID, &c.BirthDate, &c.ExpectedBirthDate, &c.Unborn,
			&c.HasSpecialNeeds, pq.Array(&c.SpecialNeedsTypes), &c.SpecialNeedsDescription,
		); err != nil {
			return nil, err
		}
		if len(wanted) == 0 || wanted[c.ID] {
			children = append(children, c)
		}
	}
	return children, rows.Err()
}

func fetchCaregivers(ctx context.Context, db *sql.DB, ids []string) ([]models.CaregiverRecord, error) {
	rows, err := db.QueryContext(ctx, caregiversQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	caregivers := []models.CaregiverRecord{}
	for rows.Next() {
		var c models.CaregiverRecord
		var availability []byte
		if err := rows.Scan(
			&c.ID, &c.Gender, &c.BirthDate, &c.IsSmoker, &c.HasCnh,
			&c.ExperienceYears, pq.Array(&c.AgeRangesExperience), pq.Array(&c.Certifications),
			&c.HasSpecialNeedsExperience, &c.SpecialNeedsExperienceDescription,
			&c.MaxChildrenCare, &c.ComfortableWithPets,
			pq.Array(&c.AcceptedActivities), pq.Array(&c.ActivitiesNotAccepted), pq.Array(&c.CaregiverTypes),
			pq.Array(&c.ContractRegimes), &c.HourlyRateRange,
			&c.DocumentValidated, &c.FacialValidated, &c.BackgroundCheckValidated,
			&c.ValidationExpiresAt, &c.LastActiveAt,
			&c.Latitude, &c.Longitude, &c.MaxTravelDistance, &availability,
		); err != nil {
			return nil, err
		}
		if len(availability) > 0 {
			c.Availability = append([]byte(nil), availability...)
		}
		caregivers = append(caregivers, c)
	}
	return caregivers, rows.Err()
}

func fetchReviewStats(ctx context.Context, db *sql.DB, ids []string) (map[string]models.ReviewStats, error) {
	rows, err := db.QueryContext(ctx, reviewStatsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]models.ReviewStats, len(ids))
	for rows.Next() {
		var s models.ReviewStats
		if err := rows.Scan(&s.CaregiverID, &s.AverageRating, &s.ReviewCount); err != nil {
			return nil, err
		}
		stats[s.CaregiverID] = s
	}
	return stats, rows.Err()
}
