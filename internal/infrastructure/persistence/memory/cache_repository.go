// Package memory provides the in-process cache used in development and tests
package memory

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
)

// CacheItem represents a cached item. A zero ExpiresAt never expires.
type CacheItem struct {
	Value     []byte
	ExpiresAt time.Time
}

func (i CacheItem) expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// CacheRepository implements outbound.Cache over a map
type CacheRepository struct {
	data  map[string]CacheItem
	mutex sync.RWMutex
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

var _ outbound.Cache = (*CacheRepository)(nil)

// NewCacheRepository creates a cache that sweeps expired keys every interval.
// A non-positive interval disables the sweeper.
func NewCacheRepository(cleanupInterval time.Duration) *CacheRepository {
	repo := &CacheRepository{
		data: make(map[string]CacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go repo.cleanup(cleanupInterval)
	}

	return repo
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	item, exists := r.data[key]
	r.mutex.RUnlock()

	if !exists || item.expired(r.now()) {
		return nil, outbound.ErrCacheMiss
	}

	out := make([]byte, len(item.Value))
	copy(out, item.Value)
	return out, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item := CacheItem{Value: make([]byte, len(value))}
	copy(item.Value, value)
	if ttl > 0 {
		item.ExpiresAt = r.now().Add(ttl)
	}

	r.mutex.Lock()
	r.data[key] = item
	r.mutex.Unlock()

	return nil
}

// Delete removes keys from cache
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	var removed int64
	for _, key := range keys {
		if item, ok := r.data[key]; ok {
			if !item.expired(now) {
				removed++
			}
			delete(r.data, key)
		}
	}
	return removed, nil
}

// Keys lists live keys matching a glob pattern
func (r *CacheRepository) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	now := r.now()
	keys := make([]string, 0)
	for key, item := range r.data {
		if item.expired(now) {
			continue
		}
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// DeletePrefix removes every key starting with prefix
func (r *CacheRepository) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	var removed int64
	for key, item := range r.data {
		if strings.HasPrefix(key, prefix) {
			if !item.expired(now) {
				removed++
			}
			delete(r.data, key)
		}
	}
	return removed, nil
}

// FlushAll drops every key
func (r *CacheRepository) FlushAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	r.data = make(map[string]CacheItem)
	r.mutex.Unlock()
	return nil
}

// Ping always succeeds
func (r *CacheRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len reports the number of stored keys, expired or not
func (r *CacheRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

// Close stops the sweeper
func (r *CacheRepository) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *CacheRepository) sweep() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	for key, item := range r.data {
		if item.expired(now) {
			delete(r.data, key)
		}
	}
}
