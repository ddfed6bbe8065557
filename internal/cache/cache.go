// Package cache provides a Redis-backed cache for computed health
// scores. Caching is optional: when no Redis address is configured the
// server computes scores on every request.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is not present.
var ErrMiss = errors.New("cache: miss")

// Client is the subset of go-redis client methods used by Cache.
// Keeping it as an interface enables mocking in tests.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Config holds connection settings for the cache.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// Cache wraps a Redis connection with key prefixing and a default TTL.
type Cache struct {
	cfg    Config
	client Client
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	opts := &redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping failed: %w", err)
	}

	return &Cache{cfg: cfg, client: client}, nil
}

// NewWithClient creates a Cache backed by a pre-built client.
// This is intended for testing only.
func NewWithClient(cfg Config, client Client) *Cache {
	return &Cache{cfg: cfg, client: client}
}

// Get retrieves a value by key (with prefix applied). Returns ErrMiss
// when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefixed(key)).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set stores a value with optional TTL. A zero duration uses the
// configured default; if the default is also zero the key never expires.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.cfg.DefaultTTL
	}
	return c.client.Set(ctx, c.prefixed(key), value, ttl).Err()
}

// Delete removes a key (with prefix applied).
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefixed(key)).Err()
}

// Close closes the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) prefixed(key string) string {
	return c.cfg.Prefix + key
}
