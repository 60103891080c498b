package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"warshipfetch/pkg/store"
)

// Cacher defines the caching interface used by the request client.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// Noop never hits and never stores. It is the default: responses are not persisted
// unless caching is enabled.
type Noop struct{}

func (Noop) GetCache(ctx context.Context, key string) ([]byte, bool)    { return nil, false }
func (Noop) SetCache(ctx context.Context, key string, val []byte) error { return nil }

// SQLiteCache implements Cacher on the store's cache table with a TTL.
type SQLiteCache struct {
	store store.CacheStore
	ttl   time.Duration
}

// NewSQLiteCache creates a cache; ttl <= 0 keeps entries forever.
func NewSQLiteCache(st store.CacheStore, ttl time.Duration) *SQLiteCache {
	return &SQLiteCache{store: st, ttl: ttl}
}

func (c *SQLiteCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	return c.store.GetCache(ctx, key, c.ttl)
}

func (c *SQLiteCache) SetCache(ctx context.Context, key string, val []byte) error {
	return c.store.SetCache(ctx, key, val)
}

// Key derives a stable cache key from a prefix and the request text.
func Key(prefix, text string) string {
	sum := sha256.Sum256([]byte(text))
	return prefix + "_" + hex.EncodeToString(sum[:16])
}
