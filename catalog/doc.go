// Package catalog serves products through a cache-aside layer.
//
// Reads consult the cache first and fall back to the product store on a miss
// or any cache failure; a successful store read is written back in the
// background with the cache TTL. Writes go to the store first and then delete
// the affected keys rather than refreshing them, so the next read repopulates
// from the source of truth:
//
//	create  -> products:all
//	update  -> products:all, product:<id>
//	delete  -> products:all, product:<id>
//
// Cache failures never surface to callers. The only errors returned are
// NotFound, BadReference, Invalid and store failures (see package domain).
//
// # Basic Usage
//
//	svc := catalog.NewService(products, cacheStore, catalog.WithLogger(logger))
//	defer svc.Close()
//
//	product, err := svc.GetProduct(ctx, "0b6d...")
//	if domain.IsNotFound(err) {
//		// 404
//	}
//
// # Staleness
//
// A concurrent reader can repopulate a key with a pre-write value after the
// invalidation has run. That entry lives at most one TTL; there is no
// versioning or locking to prevent it.
package catalog
