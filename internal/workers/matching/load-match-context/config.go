// internal/workers/matching/load-match-context/config.go
package loadmatchcontext

import (
	"time"

	"cuidly-matching/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}

// NewConfig reads the worker timeout and the context cache TTL from the
// application config.
func NewConfig(cfg *config.Config) *Config {
	c := LoadConfig()
	if t := config.GetWorkerConfig(cfg, TaskType).Timeout; t > 0 {
		c.Timeout = config.GetDuration(t)
	}
	if ttl := cfg.Matching.Cache.ContextTTL; ttl > 0 {
		c.CacheTTL = config.GetDuration(ttl)
	}
	return c
}
