// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_scored_total",
			Help: "Total number of caregivers scored against a job",
		},
		[]string{"eligible"},
	)

	Eliminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_eliminations_total",
			Help: "Caregivers eliminated by a mandatory requirement",
		},
		[]string{"requirement"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_ranking_duration_seconds",
			Help:    "Duration of a ranking run in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_score",
			Help:    "Distribution of eligible match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

// ObserveCandidate records one scored caregiver.
func ObserveCandidate(eligible bool, score float64, failed []string) {
	CandidatesScored.WithLabelValues(strconv.FormatBool(eligible)).Inc()
	if eligible {
		MatchScore.Observe(score)
	}
	for _, req := range failed {
		Eliminations.WithLabelValues(req).Inc()
	}
}
