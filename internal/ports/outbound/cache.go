package outbound

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired
var ErrCacheMiss = errors.New("key not found in cache")

// Cache is the key/value soft state shared by all services. Values are
// opaque bytes; callers serialize.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys and reports how many existed
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Keys lists keys matching a glob pattern
	Keys(ctx context.Context, pattern string) ([]string, error)
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	FlushAll(ctx context.Context) error
	Ping(ctx context.Context) error
}
