package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of every entry written by the catalog.
const DefaultTTL = 3600 * time.Second

// DefaultOpTimeout bounds each individual backend call.
const DefaultOpTimeout = 150 * time.Millisecond

const (
	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"
	opDecode = "decode"
	opEncode = "encode"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultOK    = "ok"
	resultError = "error"
)

// Recorder receives one observation per cache operation.
type Recorder interface {
	CacheOperation(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) CacheOperation(string, string) {}

// Store is the failure-absorbing front of a Backend. Its methods never
// return backend errors: a failed read is a miss, a failed write or delete
// is logged and dropped. Each backend call runs under its own short timeout
// so a hung cache cannot hold a request.
type Store struct {
	backend  Backend
	codec    Codec
	ttl      time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	recorder Recorder

	// mu orders pending.Add against Wait in Flush and Close.
	mu      sync.RWMutex
	pending sync.WaitGroup
	closed  bool
}

// Option configures a Store.
type Option func(*Store)

func WithCodec(codec Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithOpTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Store) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// NewStore wraps backend. A nil backend behaves as an always-empty cache.
func NewStore(backend Backend, opts ...Option) *Store {
	if backend == nil {
		backend = NopBackend{}
	}
	s := &Store{
		backend:  backend,
		codec:    jsonCodec{},
		ttl:      DefaultTTL,
		timeout:  DefaultOpTimeout,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime applied to entries written through the store.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the payload stored at key, if any.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, ok, err := s.backend.Get(ctx, key)
	switch {
	case err != nil:
		s.record(opGet, resultError)
		s.warn(opGet, key, err)
		return nil, false
	case !ok:
		s.record(opGet, resultMiss)
		return nil, false
	default:
		s.record(opGet, resultHit)
		return value, true
	}
}

// Set encodes value and writes it at key with the store TTL.
func (s *Store) Set(ctx context.Context, key string, value any) {
	payload, ok := s.encode(key, value)
	if !ok {
		return
	}
	s.setRaw(ctx, key, payload)
}

func (s *Store) encode(key string, value any) ([]byte, bool) {
	payload, err := s.codec.Marshal(value)
	if err != nil {
		s.record(opEncode, resultError)
		s.warn(opEncode, key, err)
		return nil, false
	}
	return payload, true
}

func (s *Store) setRaw(ctx context.Context, key string, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.backend.Set(ctx, key, payload, s.ttl); err != nil {
		s.record(opSet, resultError)
		s.warn(opSet, key, err)
		return
	}
	s.record(opSet, resultOK)
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.record(opDelete, resultError)
		s.logger.Warn("cache delete failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return
	}
	s.record(opDelete, resultOK)
}

// SetAsync encodes value on the calling goroutine and writes it in the
// background. The caller's cancellation does not reach the write; only the
// store timeout bounds it.
func (s *Store) SetAsync(ctx context.Context, key string, value any) {
	if s.isClosed() {
		return
	}
	payload, ok := s.encode(key, value)
	if !ok {
		return
	}
	s.goDetached(ctx, func(ctx context.Context) {
		s.setRaw(ctx, key, payload)
	})
}

// DeleteAsync runs Delete in the background.
func (s *Store) DeleteAsync(ctx context.Context, keys ...string) {
	s.goDetached(ctx, func(ctx context.Context) {
		s.Delete(ctx, keys...)
	})
}

func (s *Store) goDetached(ctx context.Context, fn func(context.Context)) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.pending.Add(1)
	s.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.pending.Done()
		fn(detached)
	}()
}

// Flush blocks until every background write and delete has finished.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Wait()
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Healthy pings the backend. It is meant for health checks only; the
// request paths never depend on it.
func (s *Store) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.backend.Ping(ctx)
}

// Close stops accepting background work, waits for in-flight work and
// closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.pending.Wait()
	return s.backend.Close()
}

func (s *Store) record(op, result string) {
	s.recorder.CacheOperation(op, result)
}

func (s *Store) warn(op, key string, err error) {
	s.logger.Warn("cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// NopBackend never stores anything. It is used when caching is disabled.
type NopBackend struct{}

func (NopBackend) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopBackend) Delete(context.Context, ...string) error                  { return nil }
func (NopBackend) Ping(context.Context) error                               { return nil }
func (NopBackend) Close() error                                             { return nil }
