// internal/matching/ranking/ranking.go
package ranking

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/geo"
	"cuidly-matching/internal/matching/scoring"
)

// Ranker orders a candidate pool for one job.
type Ranker struct {
	scorer      *scoring.Scorer
	concurrency int
}

type Option func(*Ranker)

// WithConcurrency bounds how many candidates are scored at once. Values below
// one score sequentially.
func WithConcurrency(n int) Option {
	return func(r *Ranker) { r.concurrency = n }
}

func WithScorer(s *scoring.Scorer) Option {
	return func(r *Ranker) { r.scorer = s }
}

func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{scorer: scoring.NewScorer(scoring.DefaultConfig()), concurrency: 1}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// FindBestMatches scores every caregiver and returns the results sorted by
// score descending, ties broken by caregiver id. Ineligible caregivers are
// kept. The only error is ctx's when it is cancelled mid-run.
func (r *Ranker) FindBestMatches(ctx context.Context, caregivers []matching.CaregiverProfile, job matching.JobRequest, family matching.FamilyProfile, children []matching.ChildRecord, now time.Time) ([]matching.MatchResult, error) {
	results := make([]matching.MatchResult, len(caregivers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range caregivers {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.scorer.Score(caregivers[i], job, family, children, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	Sort(results)
	return results, nil
}

// FindBestMatches ranks with the default scorer on a single goroutine.
func FindBestMatches(caregivers []matching.CaregiverProfile, job matching.JobRequest, family matching.FamilyProfile, children []matching.ChildRecord, now time.Time) []matching.MatchResult {
	results, _ := NewRanker().FindBestMatches(context.Background(), caregivers, job, family, children, now)
	return results
}

// Sort orders results by score descending then caregiver id ascending.
func Sort(results []matching.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CaregiverID < results[j].CaregiverID
	})
}

// ==========================
// Caller-side filters
// ==========================

// WithinTravelRadius drops caregivers whose distance to the family exceeds
// their own declared travel ceiling. Unknown distance or no ceiling passes.
func WithinTravelRadius(caregivers []matching.CaregiverProfile, family matching.FamilyProfile) []matching.CaregiverProfile {
	out := make([]matching.CaregiverProfile, 0, len(caregivers))
	for _, c := range caregivers {
		ceiling, ok := geo.MaxTravelDistanceToKm(c.MaxTravelDistance)
		if !ok || geo.IsWithinRadius(family.Location, c.Location, ceiling) {
			out = append(out, c)
		}
	}
	return out
}

// EligibleOnly keeps eligible results in their current order.
func EligibleOnly(results []matching.MatchResult) []matching.MatchResult {
	out := make([]matching.MatchResult, 0, len(results))
	for _, r := range results {
		if r.IsEligible {
			out = append(out, r)
		}
	}
	return out
}

// Limit truncates results to n entries; n <= 0 keeps everything.
func Limit(results []matching.MatchResult, n int) []matching.MatchResult {
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
