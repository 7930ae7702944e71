// Package cache provides result caching for pfannkuchen computations.
//
// A computed result for a given n never changes, so results are cached by
// a key derived from n alone and reused across runs. The [Cache] interface
// is storage-agnostic:
//
//   - [FileCache] stores entries as JSON files, the default for the CLI
//   - [RedisCache] shares entries between machines through Redis
//   - [MongoCache] keeps entries in a MongoDB collection
//   - [NullCache] disables caching
//
// Keys are built by a [Keyer] so that every backend agrees on them:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ResultKey(12, cache.ResultKeyOpts{})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys.
//
// A miss is reported as (nil, false, nil); an error means the backend
// itself failed. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the payload stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLResult is how long a computed result is kept. Results are
// deterministic, so the TTL only bounds storage growth.
const TTLResult = 30 * 24 * time.Hour

// KeyTypeResult labels result keys in cache hooks and metrics.
const KeyTypeResult = "result"

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey returns the key for the result of size n.
	ResultKey(n int, opts ResultKeyOpts) string
}

// ResultKeyOpts holds inputs that distinguish otherwise equal result keys.
//
// Block count and worker count are deliberately absent: they change how a
// result is computed, never what it is.
type ResultKeyOpts struct {
	// Version separates entries written by incompatible result encodings.
	Version int `json:"version,omitempty"`
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "result:<sha256>" over n and opts.
func (DefaultKeyer) ResultKey(n int, opts ResultKeyOpts) string {
	return hashKey(KeyTypeResult, n, opts)
}
