// Package observability builds the zap logger and the Prometheus collectors
// shared by the storefront services.
package observability
