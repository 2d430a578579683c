package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/converter"
	"cuidly-matching/internal/models"
)

// Fixture mirrors the variables the ranking worker receives.
type Fixture struct {
	ReferenceDate *time.Time                     `json:"referenceDate,omitempty"`
	Job           models.JobRecord               `json:"job"`
	Family        models.FamilyRecord            `json:"family"`
	Children      []models.ChildRecord           `json:"children"`
	Caregivers    []models.CaregiverRecord       `json:"caregivers"`
	ReviewStats   map[string]*models.ReviewStats `json:"reviewStats"`
}

type matchInput struct {
	job        matching.JobRequest
	family     matching.FamilyProfile
	children   []matching.ChildRecord
	caregivers []matching.CaregiverProfile
	skipped    []int
	now        time.Time
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture JSON: %w", err)
	}
	return &f, nil
}

func (f *Fixture) convert(rates matching.RateTable) (*matchInput, error) {
	opt := converter.WithRateTable(rates)

	job, err := converter.ConvertJob(f.Job)
	if err != nil {
		return nil, err
	}
	family, err := converter.ConvertFamily(f.Family, opt)
	if err != nil {
		return nil, err
	}
	children, err := converter.ConvertChildren(f.Children)
	if err != nil {
		return nil, err
	}

	in := &matchInput{job: job, family: family, children: children, now: time.Now().UTC()}
	if f.ReferenceDate != nil {
		in.now = *f.ReferenceDate
	}
	for i, rec := range f.Caregivers {
		p, err := converter.ConvertCaregiver(rec, f.ReviewStats[rec.ID], opt)
		if err != nil {
			in.skipped = append(in.skipped, i)
			continue
		}
		in.caregivers = append(in.caregivers, p)
	}
	return in, nil
}
