package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mobile-lyrics-go/config"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is the persistence abstraction shared by the token manager and the
// lyrics cache. Backends are selected once at construction; callers never
// branch on the backend type.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero expiresAt means no expiry.
	Set(ctx context.Context, key, value string, expiresAt time.Time) error

	// Close releases the underlying resources.
	Close() error
}

// New builds the Store configured by CACHE_BACKEND. A "none" backend returns
// (nil, nil); callers treat a nil Store as caching disabled.
func New(cfg config.Config) (Store, error) {
	switch cfg.Configuration.CacheBackend {
	case "file":
		return NewFileStore(cfg.Configuration.CacheFilePath, cfg.FeatureFlags.CacheCompression)
	case "redis":
		return NewRedisStore(cfg.Configuration.RedisURL)
	case "sqlite":
		return NewSQLiteStore(cfg.Configuration.DatabasePath)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Configuration.CacheBackend)
	}
}
