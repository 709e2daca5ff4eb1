package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-storefront/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend   string        `yaml:"backend"`
	TTL       time.Duration `yaml:"ttl"`
	OpTimeout time.Duration `yaml:"op_timeout"`
	Codec     string        `yaml:"codec"`

	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EvictionInterval   time.Duration `yaml:"eviction_interval"`

	RedisURL      string        `yaml:"redis_url"`
	RedisPoolSize int           `yaml:"redis_pool_size"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig mirrors the circuit breaker options used for remote backends.
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultConfig()
	redis := cacheinfra.DefaultRedisConfig()
	breaker := cacheinfra.DefaultBreakerConfig()

	return Config{
		Backend:            BackendMemory,
		TTL:                DefaultTTL,
		OpTimeout:          DefaultOpTimeout,
		Codec:              CodecJSON,
		Capacity:           mem.Capacity,
		NumShards:          mem.NumShards,
		EvictionPercentage: mem.EvictionPercentage,
		EvictionInterval:   mem.EvictionInterval,
		RedisURL:           redis.URL,
		DialTimeout:        redis.DialTimeout,
		Breaker: BreakerConfig{
			MaxRequests:  breaker.MaxRequests,
			Interval:     breaker.Interval,
			Timeout:      breaker.Timeout,
			FailureRatio: breaker.FailureRatio,
			MinRequests:  breaker.MinRequests,
		},
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &cacheinfra.ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.OpTimeout <= 0 {
		return &cacheinfra.ConfigError{Field: "OpTimeout", Message: "must be greater than 0"}
	}
	if _, err := NewCodec(c.Codec); err != nil {
		return &cacheinfra.ConfigError{Field: "Codec", Message: err.Error()}
	}

	switch c.Backend {
	case BackendNone:
		return nil
	case BackendMemory:
		return c.memoryConfig().Validate()
	case BackendRedis:
		if err := c.redisConfig().Validate(); err != nil {
			return err
		}
		return c.breakerConfig().Validate()
	default:
		return &cacheinfra.ConfigError{Field: "Backend", Message: "must be one of memory, redis, none"}
	}
}

// NewBackend constructs the backend named by cfg.Backend. Remote backends are
// wrapped in a circuit breaker.
func NewBackend(cfg Config, logger *zap.Logger) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		return cacheinfra.NewSturdycBackend(cfg.memoryConfig())
	case BackendRedis:
		redis, err := cacheinfra.NewRedisBackend(cfg.redisConfig())
		if err != nil {
			return nil, err
		}
		return cacheinfra.NewBreakerBackend(redis, cfg.breakerConfig(), logger)
	default:
		return NopBackend{}, nil
	}
}

// NewStoreFromConfig builds the backend and wraps it in a Store.
func NewStoreFromConfig(cfg Config, logger *zap.Logger, recorder Recorder) (*Store, error) {
	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	return NewStore(backend,
		WithCodec(codec),
		WithTTL(cfg.TTL),
		WithOpTimeout(cfg.OpTimeout),
		WithLogger(logger),
		WithRecorder(recorder),
	), nil
}

func (c Config) memoryConfig() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func (c Config) redisConfig() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		URL:         c.RedisURL,
		DialTimeout: c.DialTimeout,
		PoolSize:    c.RedisPoolSize,
	}
}

func (c Config) breakerConfig() cacheinfra.BreakerConfig {
	return cacheinfra.BreakerConfig{
		Name:         "cache-" + c.Backend,
		MaxRequests:  c.Breaker.MaxRequests,
		Interval:     c.Breaker.Interval,
		Timeout:      c.Breaker.Timeout,
		FailureRatio: c.Breaker.FailureRatio,
		MinRequests:  c.Breaker.MinRequests,
	}
}
