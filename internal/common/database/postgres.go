// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cuidly-matching/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient holds the pool shared by load-match-context and
// persist-match-results.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool. No connection is made until the first Ping or query.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	lifetime := time.Duration(cfg.ConnMaxLifetime) * time.Millisecond
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// PoolStats reports pool usage for the readiness endpoint.
func (c *PostgresClient) PoolStats() map[string]interface{} {
	s := c.DB.Stats()
	return map[string]interface{}{
		"open":    s.OpenConnections,
		"inUse":   s.InUse,
		"idle":    s.Idle,
		"maxOpen": s.MaxOpenConnections,
		"waits":   s.WaitCount,
	}
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
