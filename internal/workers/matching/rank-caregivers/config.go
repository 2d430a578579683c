// internal/workers/matching/rank-caregivers/config.go
package rankcaregivers

import (
	"time"

	"cuidly-matching/internal/common/config"
	"cuidly-matching/internal/matching/scoring"
)

type Config struct {
	Timeout       time.Duration
	Scoring       scoring.Config
	Concurrency   int
	MaxResults    int
	CacheTTL      time.Duration
	SlowThreshold time.Duration
	DecimalPlaces int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		Scoring:       scoring.DefaultConfig(),
		Concurrency:   8,
		MaxResults:    50,
		CacheTTL:      15 * time.Minute,
		SlowThreshold: 500 * time.Millisecond,
		DecimalPlaces: 1,
	}
}

func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if t := config.GetWorkerConfig(cfg, TaskType).Timeout; t > 0 {
		c.Timeout = config.GetDuration(t)
	}
	r := cfg.Matching.Ranking
	c.Scoring = cfg.Matching.Scoring
	c.Concurrency = r.Concurrency
	c.MaxResults = r.MaxResults
	c.CacheTTL = config.GetDuration(r.CacheTTL)
	c.SlowThreshold = config.GetDuration(r.SlowThreshold)
	return c
}
