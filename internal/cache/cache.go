// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes provider responses keyed by (provider,
// operation, normalized query), with a per-entry time to live. Two
// backends are provided: a SQLite file store and a Redis store.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// DefaultTTL is how long a cached provider response stays valid unless
// configured otherwise.
const DefaultTTL = 24 * time.Hour

// maxKeyLen bounds storage keys; longer keys have their query part
// replaced by a fixed-length content hash.
const maxKeyLen = 100

// Store is the result cache shared by all provider adapters. Entries
// are written once on a successful provider response and only
// read-and-expired afterwards. Implementations must be safe for
// concurrent use: the aggregator fans adapters out concurrently.
type Store interface {
	// Get returns the value for key, or found=false on a miss. An
	// expired entry is a miss and is removed.
	Get(ctx context.Context, key string) (value []byte, found bool)

	// Set stores value under key for ttl (DefaultTTL when ttl <= 0).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Clear removes every entry whose key starts with prefix (all
	// entries when prefix is empty) and returns how many were removed.
	Clear(ctx context.Context, prefix string) (int, error)

	Close() error
}

// Open constructs the store selected by cfg.Backend. An empty backend
// defaults to SQLite.
func Open(cfg types.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case types.CacheSQLite, "":
		return NewSQLiteStore(cfg)
	case types.CacheRedis:
		return NewRedisStore(cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key builds a deterministic cache key from the provider name, the
// operation kind ("doi", "isbn", or "query"), and the query text. The
// query is lower-cased and whitespace-collapsed so trivially different
// spellings of the same lookup share an entry. Keys that would exceed
// the storage bound carry a content hash of the query instead.
func Key(provider, op, query string) string {
	q := strings.ToLower(strings.Join(strings.Fields(query), " "))
	key := provider + ":" + op + ":" + q
	if len(key) <= maxKeyLen {
		return key
	}
	sum := sha256.Sum256([]byte(q))
	return fmt.Sprintf("%s:%s:%x", provider, op, sum[:16])
}
