package cacheinfra

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Backend mirrors cache.Backend so this package does not import it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// BreakerConfig holds configuration for the cache circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureRatio trips the breaker once MinRequests have been observed.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig opens after half of at least ten calls fail and
// probes again after five seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "cache",
		MaxRequests:  1,
		Interval:     30 * time.Second,
		Timeout:      5 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  10,
	}
}

// Validate checks the breaker configuration.
func (c BreakerConfig) Validate() error {
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		return &ConfigError{Field: "Breaker.FailureRatio", Message: "must be in (0, 1]"}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Breaker.Timeout", Message: "must be greater than 0"}
	}
	if c.Interval < 0 {
		return &ConfigError{Field: "Breaker.Interval", Message: "must be non-negative"}
	}
	return nil
}

// BreakerBackend short-circuits calls to a failing backend. While open,
// every call returns gobreaker.ErrOpenState immediately.
type BreakerBackend struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerBackend wraps next with a circuit breaker.
func NewBreakerBackend(next Backend, cfg BreakerConfig, logger *zap.Logger) (*BreakerBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerBackend{next: next, cb: cb}, nil
}

// State reports the current breaker state.
func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}

type getResult struct {
	value []byte
	ok    bool
}

func (b *BreakerBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		value, ok, err := b.next.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (b *BreakerBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Set(ctx, key, value, ttl)
	})
	return err
}

func (b *BreakerBackend) Delete(ctx context.Context, keys ...string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Delete(ctx, keys...)
	})
	return err
}

// Ping bypasses the breaker so health checks see the real backend state.
func (b *BreakerBackend) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

func (b *BreakerBackend) Close() error {
	return b.next.Close()
}
