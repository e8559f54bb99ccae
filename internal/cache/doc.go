// Package cache provides in-memory caching with TTL expiration for derived
// server data.
//
// The primary consumer is the listing summary endpoint, which pays for PDF
// text extraction and a language model call on every miss. Key features:
//   - Keyed lookups with per-entry expiration (default 24 hours)
//   - Lazy eviction on read plus an explicit CleanupExpired sweep
//   - In-process storage only, nothing survives a restart
//
// The store is generic over the cached value type so the same machinery can
// back any endpoint that produces expensive, slowly-changing responses.
package cache
