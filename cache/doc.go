// Package cache provides the volatile key-value tier used by the catalog.
//
// # Overview
//
// The package exports three pieces:
//
//   - Backend: a raw key-value store whose calls can fail (memory, redis)
//   - Store: wraps a Backend and absorbs every failure
//   - GetOrFetch: the cache-aside read built on top of Store
//
// Nothing read from the cache is authoritative. A failed read is a miss, a
// failed write or delete is logged through zap and dropped, so callers never
// see a cache error.
//
// # Basic Usage
//
//	store, err := cache.NewStoreFromConfig(cache.DefaultConfig(), logger, nil)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	product, err := cache.GetOrFetch(ctx, store, cache.ProductKey(id), func(ctx context.Context) (*domain.Product, error) {
//		return products.FindByID(ctx, id)
//	})
//
// # Keys
//
// Keys are built by KeySerializer. The catalog uses two families:
//
//   - products:all holds the whole product list
//   - product:<id> holds one product
//
// # Background work
//
// Write-back after a miss and invalidation after a write run in goroutines
// detached from the request context and bounded by the store op timeout.
// Flush waits for them; Close waits and then closes the backend.
//
// # Payloads
//
// Values are encoded with a Codec. JSON is the default; msgpack is available
// for smaller payloads. Switching codecs on a live cache is safe: entries
// that fail to decode are treated as misses.
package cache
