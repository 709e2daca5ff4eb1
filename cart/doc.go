// Package cart implements the per-user cart: quantity merging keyed by
// product id, resolution of items against the catalog, and lazy removal of
// items whose product no longer exists.
//
// Carts are read from and written to the store directly; they are never
// cached. Every write resolves the full item list first, so orphaned items
// observed during a mutation are dropped in the same write. GetCart does the
// same on read and persists the cleaned cart when it found orphans.
//
// Writes for the same user are not serialized by default. Two concurrent
// mutations can both read the same cart and the later write wins. The
// WithSerializedWrites option adds an in-process lock per user; it does
// nothing for writers in other processes.
package cart
