// Package cache provides byte-oriented caches for computed layouts.
//
// Layout is the expensive step of building a diagram, and identical inputs
// recur constantly: every keystroke in a schema editor that does not change
// the table graph, every session opened on the same schema. Caching the
// engine result keyed by a hash of its input avoids recomputing them.
//
// # Implementations
//
//   - [NullCache]: stores nothing (caching disabled)
//   - [MemoryCache]: in-process LRU with expiry, the default for serve
//   - [FileCache]: one file per entry, for repeated CLI runs
//   - [RedisCache]: shared cache for several server instances
//
// Keys come from a [Keyer] so that deployments can namespace them with
// [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// failed, and callers treat it as a miss. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
