package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
)

// RedisStore backs the Store interface with an external Redis service.
// Expiry is delegated to Redis itself via PEXPIREAT.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to the Redis URL (redis://...) and pings it once.
func NewRedisStore(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Infof("%s Redis cache connected (%s)", logcolors.LogCacheInit, opts.Addr)
	return &RedisStore{rdb: rdb}, nil
}

// Get returns the value for key, or ErrNotFound.
func (rs *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := rs.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores the value; a non-zero expiresAt becomes a PEXPIREAT.
func (rs *RedisStore) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	if err := rs.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	if !expiresAt.IsZero() {
		if err := rs.rdb.PExpireAt(ctx, key, expiresAt).Err(); err != nil {
			return fmt.Errorf("redis pexpireat: %w", err)
		}
	}
	return nil
}

// Close closes the client connection.
func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}
