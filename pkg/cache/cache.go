// Package cache stores rendered launch lines and graphs so repeated requests
// for the same snapshot skip decoding and serialization.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// Keys are built by a [Keyer] from a hash of the snapshot bytes and the
// options that influence the output, so changing an indent or the discard
// policy never returns a stale line.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored data and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Default time-to-live values per entry type.
const (
	TTLLaunch = 7 * 24 * time.Hour
	TTLGraph  = 7 * 24 * time.Hour
)
