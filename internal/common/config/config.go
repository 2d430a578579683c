// internal/common/config/config.go
package config

import (
	"fmt"

	"cuidly-matching/internal/matching/scoring"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Matching MatchingConfig          `mapstructure:"matching"`
	Events   EventsConfig            `mapstructure:"events"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	MaxConnections  int    `mapstructure:"max_connections"`
	MaxIdle         int    `mapstructure:"max_idle"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // milliseconds
	SSLMode         string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // single URL, used when addresses is empty
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Matching ---

// MatchingConfig holds the engine constants and the settings of the workers
// that drive it.
type MatchingConfig struct {
	Scoring scoring.Config      `mapstructure:"scoring"`
	Ranking RankingConfig       `mapstructure:"ranking"`
	Search  SearchConfig        `mapstructure:"search"`
	Cache   MatchingCacheConfig `mapstructure:"cache"`
}

type RankingConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	MaxResults    int `mapstructure:"max_results"`
	CacheTTL      int `mapstructure:"cache_ttl"`      // milliseconds
	SlowThreshold int `mapstructure:"slow_threshold"` // milliseconds
}

type SearchConfig struct {
	Index           string  `mapstructure:"index"`
	MaxCandidates   int     `mapstructure:"max_candidates"`
	DefaultRadiusKm float64 `mapstructure:"default_radius_km"`
}

type MatchingCacheConfig struct {
	ContextTTL int `mapstructure:"context_ttl"` // milliseconds
}

// --- Events ---

type EventsConfig struct {
	SNS   SNSConfig          `mapstructure:"sns"`
	Zeebe ZeebeMessageConfig `mapstructure:"zeebe"`
}

// ZeebeMessageConfig publishes events as Zeebe messages. SNS wins when both
// are enabled.
type ZeebeMessageConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MessageTTL int  `mapstructure:"message_ttl"` // milliseconds
}

type SNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}
