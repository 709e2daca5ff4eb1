package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mapBackend is an in-memory Backend that can be told to fail every call
type mapBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	fail    error
	calls   []string
	closed  bool
	// callsAfterClose counts Get, Set and Delete calls made once Close ran
	callsAfterClose int
}

func newMapBackend() *mapBackend {
	return &mapBackend{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mapBackend) recordCall(method string) {
	m.calls = append(m.calls, method)
	if m.closed {
		m.callsAfterClose++
	}
}

func (m *mapBackend) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mapBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Get")
	if m.fail != nil {
		return nil, false, m.fail
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Set")
	if m.fail != nil {
		return m.fail
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mapBackend) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCall("Delete")
	if m.fail != nil {
		return m.fail
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *mapBackend) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail
}

func (m *mapBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mapBackend) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// blockingBackend never answers until its context ends
type blockingBackend struct{ NopBackend }

func (blockingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) CacheOperation(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[op+"/"+result]++
}

func (r *countingRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

type item struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

func TestStore_SetGet(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend, WithTTL(time.Minute))
	ctx := context.Background()

	store.Set(ctx, "k", item{ID: "1", Name: "one"})

	raw, ok := store.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(raw) != `{"id":"1","name":"one"}` {
		t.Errorf("unexpected payload %s", raw)
	}
	if backend.ttls["k"] != time.Minute {
		t.Errorf("expected ttl 1m, got %v", backend.ttls["k"])
	}
}

func TestStore_AbsorbsBackendFailures(t *testing.T) {
	backend := newMapBackend()
	backend.fail = errors.New("connection refused")
	recorder := &countingRecorder{}
	store := NewStore(backend, WithRecorder(recorder))
	ctx := context.Background()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expected miss from failing backend")
	}
	store.Set(ctx, "k", item{ID: "1"})
	store.Delete(ctx, "k")

	if recorder.count("get/error") != 1 {
		t.Errorf("expected one get error, got %d", recorder.count("get/error"))
	}
	if recorder.count("set/error") != 1 {
		t.Errorf("expected one set error, got %d", recorder.count("set/error"))
	}
	if recorder.count("delete/error") != 1 {
		t.Errorf("expected one delete error, got %d", recorder.count("delete/error"))
	}
	if err := store.Healthy(ctx); err == nil {
		t.Error("expected Healthy to report the backend failure")
	}
}

func TestStore_OpTimeoutBoundsSlowBackend(t *testing.T) {
	store := NewStore(blockingBackend{}, WithOpTimeout(20*time.Millisecond))

	start := time.Now()
	_, ok := store.Get(context.Background(), "k")
	if ok {
		t.Error("expected miss")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Get took %v, expected it to give up after the op timeout", elapsed)
	}
}

func TestStore_AsyncSurvivesCallerCancel(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend)

	ctx, cancel := context.WithCancel(context.Background())
	store.SetAsync(ctx, "k", item{ID: "1"})
	cancel()
	store.Flush()

	if !backend.has("k") {
		t.Error("expected background write to complete after caller cancel")
	}

	store.DeleteAsync(ctx, "k")
	store.Flush()
	if backend.has("k") {
		t.Error("expected background delete to complete")
	}
}

func TestStore_CloseDrainsAndRejects(t *testing.T) {
	backend := newMapBackend()
	store := NewStore(backend)
	ctx := context.Background()

	store.SetAsync(ctx, "a", item{ID: "a"})
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !backend.has("a") {
		t.Error("expected pending write to drain before close")
	}
	if !backend.closed {
		t.Error("expected backend to be closed")
	}

	store.SetAsync(ctx, "b", item{ID: "b"})
	store.Flush()
	if backend.has("b") {
		t.Error("expected writes after Close to be dropped")
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestStore_CloseRacingBackgroundWork(t *testing.T) {
	for round := 0; round < 50; round++ {
		backend := newMapBackend()
		store := NewStore(backend)
		ctx := context.Background()

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 20; j++ {
					store.SetAsync(ctx, "k", item{ID: "1"})
					store.DeleteAsync(ctx, "k")
				}
			}()
		}
		close(start)
		if err := store.Close(); err != nil {
			t.Fatalf("unexpected close error: %v", err)
		}
		wg.Wait()
		store.Flush()

		backend.mu.Lock()
		late := backend.callsAfterClose
		backend.mu.Unlock()
		if late != 0 {
			t.Fatalf("round %d: %d backend calls after Close", round, late)
		}
	}
}

func TestNewStore_NilBackend(t *testing.T) {
	store := NewStore(nil)
	store.Set(context.Background(), "k", item{ID: "1"})
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Error("expected nil backend to behave as an empty cache")
	}
}
