package cache

import (
	"context"
	"time"
)

// KeyPrefix namespaces resolution entries in the shared Redis instance.
const KeyPrefix = "short_code:"

// Key builds the cache key for a short code.
func Key(code string) string {
	return KeyPrefix + code
}

// Cache is the resolution-cache contract consumed by the shortening service
// and the rate-limit middleware. Implementations are strictly best-effort
// accelerators: lookups degrade to a miss on any backend trouble and writes
// swallow failures, because the link registry is always the source of truth.
type Cache interface {
	// Get returns the cached value and whether it was present. Backend
	// errors and timeouts report absence, never an error.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key with the given TTL. Failures are logged
	// and dropped.
	Set(ctx context.Context, key, value string, ttl time.Duration)

	// Del removes key so stale mappings stop resolving after an update.
	// Best effort, like Set.
	Del(ctx context.Context, key string)

	// Incr atomically increments a counter, applying ttl on the first
	// increment. Used for request quotas; errors surface so callers can
	// decide to fail open.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
