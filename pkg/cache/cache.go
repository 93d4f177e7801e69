// Package cache provides content-addressed caching for pipeline results.
//
// Analysis stages are deterministic functions of their inputs, so results are
// cached under keys derived from image content hashes plus the options that
// influence the result. Three backends are provided:
//   - FileCache: file-based storage for CLI usage (XDG cache dir)
//   - RedisCache: Redis-backed storage for API deployments
//   - NullCache: no-op cache for testing or --no-cache runs
package cache

import (
	"context"
	"time"
)

// TTLs for the different cached artifact classes.
const (
	// TTLPalette is how long extracted palettes are cached.
	// Palettes depend only on image content, so they can live long.
	TTLPalette = 30 * 24 * time.Hour

	// TTLAnalysis is how long full analysis reports are cached.
	// Shorter than palettes because vision-model output feeds into them.
	TTLAnalysis = 7 * 24 * time.Hour

	// TTLComparison is how long pixel comparison results are cached.
	TTLComparison = 7 * 24 * time.Hour
)

// Cache is the interface for cache backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// NullCache is a no-op cache that never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
