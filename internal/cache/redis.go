// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// RedisStore backs the result cache with Redis, for deployments where
// several workers share one cache. TTL expiry is native to the store.
type RedisStore struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a
// ping before returning.
func NewRedisStore(cfg types.RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{rdb: rdb, defaultTTL: DefaultTTL}, nil
}

// Get returns the cached value for key, or a miss once the entry's TTL
// has passed.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set stores value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes entries by key prefix via SCAN, or everything when
// prefix is empty.
func (s *RedisStore) Clear(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scanning cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return removed, fmt.Errorf("deleting cache keys: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
