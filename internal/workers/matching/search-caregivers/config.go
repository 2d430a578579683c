// internal/workers/matching/search-caregivers/config.go
package searchcaregivers

import (
	"time"

	"cuidly-matching/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	Index           string
	MaxCandidates   int
	DefaultRadiusKm float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		Index:           "caregivers",
		MaxCandidates:   200,
		DefaultRadiusKm: 30,
	}
}

func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if t := config.GetWorkerConfig(cfg, TaskType).Timeout; t > 0 {
		c.Timeout = config.GetDuration(t)
	}
	search := cfg.Matching.Search
	if search.Index != "" {
		c.Index = search.Index
	}
	if search.MaxCandidates > 0 {
		c.MaxCandidates = search.MaxCandidates
	}
	if search.DefaultRadiusKm > 0 {
		c.DefaultRadiusKm = search.DefaultRadiusKm
	}
	return c
}
