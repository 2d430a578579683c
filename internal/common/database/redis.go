// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"cuidly-matching/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the match context and ranking caches.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	return &RedisClient{Client: rdb}, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// PoolStats reports connection pool usage.
func (c *RedisClient) PoolStats() map[string]interface{} {
	s := c.Client.PoolStats()
	return map[string]interface{}{
		"total":    s.TotalConns,
		"idle":     s.IdleConns,
		"hits":     s.Hits,
		"misses":   s.Misses,
		"timeouts": s.Timeouts,
	}
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
