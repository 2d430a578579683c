// internal/workers/matching/persist-match-results/config.go
package persistmatchresults

import (
	"time"

	"cuidly-matching/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	PublishEvents bool
	TopicARN      string
	// TopCount is how many caregiver ids the ready event carries.
	TopCount int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  15 * time.Second,
		TopCount: 5,
	}
}

func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if t := config.GetWorkerConfig(cfg, TaskType).Timeout; t > 0 {
		c.Timeout = config.GetDuration(t)
	}
	c.PublishEvents = cfg.Events.SNS.Enabled || cfg.Events.Zeebe.Enabled
	if cfg.Events.SNS.Enabled {
		c.TopicARN = cfg.Events.SNS.TopicARN
	}
	return c
}
