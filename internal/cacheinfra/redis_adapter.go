package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection string.
	URL string

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// PoolSize is the maximum number of socket connections. Zero keeps the
	// go-redis default.
	PoolSize int
}

// DefaultRedisConfig targets a local server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		URL:         "redis://localhost:6379",
		DialTimeout: time.Second,
	}
}

// Validate checks the Redis configuration.
func (c RedisConfig) Validate() error {
	if c.URL == "" {
		return &ConfigError{Field: "Redis.URL", Message: "must not be empty"}
	}
	if _, err := redis.ParseURL(c.URL); err != nil {
		return &ConfigError{Field: "Redis.URL", Message: err.Error()}
	}
	if c.DialTimeout < 0 {
		return &ConfigError{Field: "Redis.DialTimeout", Message: "must be non-negative"}
	}
	if c.PoolSize < 0 {
		return &ConfigError{Field: "Redis.PoolSize", Message: "must be non-negative"}
	}
	return nil
}

// RedisBackend stores entries in Redis with per-key expiry.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend builds a client from cfg. It does not dial; the first
// command or Ping does.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	// a single retry, the cache is never worth waiting for
	opts.MaxRetries = 1
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.client.Del(ctx, keys...).Err()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
