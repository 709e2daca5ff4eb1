package cache

import (
	"context"
	"time"
)

// Backend is a volatile key-value store. Every call may fail independently;
// callers other than Store are not expected to use it directly.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// FetchFn loads a value from the source of truth after a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// GetOrFetch implements the cache-aside read. A hit is decoded and returned
// without calling fetch. On a miss, a backend failure or an undecodable
// payload, fetch runs; when it succeeds the result is written back in the
// background with the store TTL. Errors from fetch are returned as-is and
// nothing is cached for them.
func GetOrFetch[T any](ctx context.Context, s *Store, key string, fetch FetchFn[T]) (T, error) {
	if cached, ok := s.Get(ctx, key); ok {
		var value T
		err := s.codec.Unmarshal(cached, &value)
		if err == nil {
			return value, nil
		}
		s.record(opDecode, resultError)
		s.warn(opDecode, key, err)
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.SetAsync(ctx, key, value)
	return value, nil
}
