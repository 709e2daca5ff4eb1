// Package domain holds the records shared by the catalog, cart and identity
// packages, and the error values they return.
//
// Records double as bun models so the store adapters can persist them as-is.
// Errors are github.com/jmgilman/go/errors values; callers classify them with
// IsNotFound, IsBadReference and IsInvalid rather than by message.
package domain
