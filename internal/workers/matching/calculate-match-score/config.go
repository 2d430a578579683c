// internal/workers/matching/calculate-match-score/config.go
package calculatematchscore

import (
	"time"

	"cuidly-matching/internal/common/config"
	"cuidly-matching/internal/matching/scoring"
)

type Config struct {
	Timeout time.Duration
	Scoring scoring.Config
	// DecimalPlaces is the rounding applied to the returned numbers.
	DecimalPlaces int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		Scoring:       scoring.DefaultConfig(),
		DecimalPlaces: 1,
	}
}

func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if t := config.GetWorkerConfig(cfg, TaskType).Timeout; t > 0 {
		c.Timeout = config.GetDuration(t)
	}
	c.Scoring = cfg.Matching.Scoring
	return c
}
