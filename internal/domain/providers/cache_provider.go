package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// ResponseCacheKey builds the cache key for an HTTP response to method, path
// and raw query. The method and path stay in the clear so invalidation can
// target routes with a glob pattern; only the query string is hashed. Both
// the caching middleware and the cache warmer derive keys from this, so a
// warmed entry is found by the request it was warmed for.
func ResponseCacheKey(method, path, rawQuery string) string {
	hash := sha256.Sum256([]byte(rawQuery))
	return fmt.Sprintf("http:cache:%s:%s:%s", method, path, hex.EncodeToString(hash[:8]))
}
