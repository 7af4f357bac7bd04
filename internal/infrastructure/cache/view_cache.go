package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/config"
	"github.com/redis/go-redis/v9"
)

type kvStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ViewCache is a JSON-backed Redis cache for read models of type T. A zero ttl stores
// keys without expiry.
type ViewCache[T any] struct {
	client kvStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewViewCache[T any](client *redis.Client, ttl time.Duration, logger *slog.Logger) *ViewCache[T] {
	return newViewCache[T](client, ttl, logger)
}

func newViewCache[T any](client kvStore, ttl time.Duration, logger *slog.Logger) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger.With("component", "ViewCache")}
}

// Get returns (nil, false) on a miss and on any read or decode error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WarnContext(ctx, "Cache entry could not be decoded", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set logs failures instead of returning them; a cache write miss is not fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.ErrorContext(ctx, "Cache entry could not be encoded", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache delete failed", "key", key, "error", err)
	}
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty in configuration")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis client connected successfully.", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}
