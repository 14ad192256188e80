package cachepolicy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"go.uber.org/zap"
)

// Store reads and writes JSON values through a Cache. Cache failures are
// logged and reported as misses; they never reach the caller.
type Store struct {
	cache  outbound.Cache
	logger *zap.Logger
}

// NewStore creates a JSON store over cache
func NewStore(cache outbound.Cache, logger *zap.Logger) *Store {
	return &Store{cache: cache, logger: logger}
}

// Fetch decodes the value under key into dest and reports whether it was found
func (s *Store) Fetch(ctx context.Context, key string, dest interface{}) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else {
			s.logger.Debug("Cache miss", zap.String("key", key))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		if _, err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Debug("Failed to drop cache entry", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	s.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

// Save encodes value under key for ttl
func (s *Store) Save(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Drop deletes keys, logging failures
func (s *Store) Drop(ctx context.Context, keys ...string) {
	if _, err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Remember returns the cached value under key, or loads, caches and returns it.
// The boolean reports a cache hit. Load errors are returned and nothing is cached.
func Remember[T any](ctx context.Context, s *Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if s.Fetch(ctx, key, &cached) {
		return cached, true, nil
	}
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	s.Save(ctx, key, value, ttl)
	return value, false, nil
}
