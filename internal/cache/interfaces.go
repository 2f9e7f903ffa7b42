// Package cache stores short-lived byte payloads such as session tokens and
// computed statistics, in memory or in Redis.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key/value store. Keys are namespaced by the caller.
type Cache interface {
	// Get returns ErrCacheMiss for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// GetOrSet returns the cached value or stores the result of fn.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error)

	// Name identifies the backend in health output.
	Name() string

	Close() error
}

// CacheError is a sentinel error type for cache lookups.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found in cache.
const ErrCacheMiss CacheError = "cache miss"
