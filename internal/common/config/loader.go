// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cuidly-matching/internal/matching/scoring"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment file is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return build(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	cfg := Config{}
	cfg.Matching.Scoring = scoring.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := overlayScoringLists(v, &cfg.Matching.Scoring); err != nil {
		return nil, err
	}
	cfg.Matching.Scoring.Normalize()

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overlayScoringLists replaces list-valued scoring constants wholesale.
// Unmarshalling into a pre-filled slice would otherwise keep the trailing
// default entries.
func overlayScoringLists(v *viper.Viper, sc *scoring.Config) error {
	if v.IsSet("matching.scoring.age_brackets") {
		var brackets []scoring.AgeBracket
		if err := v.UnmarshalKey("matching.scoring.age_brackets", &brackets); err != nil {
			return fmt.Errorf("failed to unmarshal age brackets: %w", err)
		}
		sc.AgeBrackets = brackets
	}
	if v.IsSet("matching.scoring.related_caregiver_types") {
		var pairs []scoring.TypePair
		if err := v.UnmarshalKey("matching.scoring.related_caregiver_types", &pairs); err != nil {
			return fmt.Errorf("failed to unmarshal related caregiver types: %w", err)
		}
		sc.RelatedCaregiverTypes = pairs
	}
	return nil
}

// loadEnvFile loads .env from the working directory, its parents or the
// project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		switch val := v.Get(key).(type) {
		case string:
			if expanded, ok := expandValue(val); ok {
				v.Set(key, expanded)
			}
		case []interface{}:
			changed := false
			out := make([]interface{}, len(val))
			for i, item := range val {
				out[i] = item
				if s, ok := item.(string); ok {
					if expanded, ok := expandValue(s); ok {
						out[i] = expanded
						changed = true
					}
				}
			}
			if changed {
				v.Set(key, out)
			}
		}
	}
}

func expandValue(s string) (string, bool) {
	if !strings.Contains(s, "${") && !(strings.HasPrefix(s, "$") && len(s) > 1) {
		return "", false
	}
	expanded := os.ExpandEnv(s)
	if expanded == s || expanded == "" {
		return "", false
	}
	return expanded, true
}

// overrideEmptyConfig fills secrets that are commonly provided under their
// conventional names instead of the config key path.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Events.SNS.TopicARN == "" {
		if val := os.Getenv("MATCHES_TOPIC_ARN"); val != "" {
			cfg.Events.SNS.TopicARN = val
		}
	}
	if cfg.Events.SNS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Events.SNS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cuidly-matching"
	}
	if cfg.App.HTTPPort == 0 {
		cfg.App.HTTPPort = 8080
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Events.Zeebe.MessageTTL == 0 {
		cfg.Events.Zeebe.MessageTTL = 3600000
	}
	if cfg.Database.Postgres.ConnMaxLifetime == 0 {
		cfg.Database.Postgres.ConnMaxLifetime = 300000
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.MinIdleConns == 0 {
		cfg.Database.Redis.MinIdleConns = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	m := &cfg.Matching
	if m.Ranking.Concurrency == 0 {
		m.Ranking.Concurrency = 8
	}
	if m.Ranking.MaxResults == 0 {
		m.Ranking.MaxResults = 50
	}
	if m.Ranking.CacheTTL == 0 {
		m.Ranking.CacheTTL = 15 * 60 * 1000
	}
	if m.Ranking.SlowThreshold == 0 {
		m.Ranking.SlowThreshold = 500
	}
	if m.Search.Index == "" {
		m.Search.Index = "caregivers"
	}
	if m.Search.MaxCandidates == 0 {
		m.Search.MaxCandidates = 200
	}
	if m.Search.DefaultRadiusKm == 0 {
		m.Search.DefaultRadiusKm = 30
	}
	if m.Cache.ContextTTL == 0 {
		m.Cache.ContextTTL = 5 * 60 * 1000
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Matching.Ranking.Concurrency < 1 || cfg.Matching.Ranking.Concurrency > 256 {
		return fmt.Errorf("matching.ranking.concurrency must be between 1 and 256")
	}
	if cfg.Matching.Ranking.MaxResults < 0 {
		return fmt.Errorf("matching.ranking.max_results must not be negative")
	}
	if cfg.Matching.Search.DefaultRadiusKm < 0 {
		return fmt.Errorf("matching.search.default_radius_km must not be negative")
	}
	if err := cfg.Matching.Scoring.Validate(); err != nil {
		return fmt.Errorf("matching.scoring: %w", err)
	}

	if cfg.Events.SNS.Enabled && cfg.Events.SNS.TopicARN == "" {
		return fmt.Errorf("events.sns.topic_arn is required when sns is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

// LoadScoring reads only matching.scoring from path, over the defaults. It
// skips the service validation so offline tools can use partial files.
func LoadScoring(path string) (scoring.Config, error) {
	sc := scoring.DefaultConfig()
	if path == "" {
		return sc, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return sc, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if v.IsSet("matching.scoring") {
		if err := v.UnmarshalKey("matching.scoring", &sc); err != nil {
			return sc, fmt.Errorf("failed to unmarshal scoring config: %w", err)
		}
		if err := overlayScoringLists(v, &sc); err != nil {
			return sc, err
		}
	}
	sc.Normalize()
	if err := sc.Validate(); err != nil {
		return sc, fmt.Errorf("matching.scoring: %w", err)
	}
	return sc, nil
}
