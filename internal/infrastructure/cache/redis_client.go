// Package cache provides the Redis-backed cache adapter and the metrics
// decorator shared by every cache backend
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/config"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls to Redis
var ErrCircuitOpen = errors.New("redis circuit breaker is open")

const scanBatch = 500

// RedisClient implements outbound.Cache on Redis, behind a circuit breaker
// so an unreachable server fails fast instead of stalling every request
type RedisClient struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

var _ outbound.Cache = (*RedisClient)(nil)

// NewRedisClient creates a Redis client and verifies the connection
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	opts := &redis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	}

	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	r := NewRedisClientFrom(redis.NewUniversalClient(opts), cfg.Breaker, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.Ping(ctx); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("database", cfg.Database),
		zap.Bool("cluster_enabled", cfg.EnableCluster))

	return r, nil
}

// NewRedisClientFrom wraps an existing client without pinging it
func NewRedisClientFrom(client redis.UniversalClient, bc config.BreakerConfig, logger *zap.Logger) *RedisClient {
	logger = logger.Named("redis-cache")

	threshold := bc.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A miss or a canceled caller says nothing about Redis health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, redis.Nil) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Redis circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &RedisClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

func (r *RedisClient) execute(fn func() (any, error)) (any, error) {
	res, err := r.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return res, err
}

// Ping tests Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	return err
}

// Get retrieves a value, mapping a missing key to outbound.ErrCacheMiss
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := r.execute(func() (any, error) {
		return r.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return res.([]byte), nil
}

// Set stores a value with TTL. A non-positive TTL stores without expiry.
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	_, err := r.execute(func() (any, error) {
		return nil, r.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Delete removes keys and returns how many existed
func (r *RedisClient) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := r.execute(func() (any, error) {
		return r.deleteKeys(ctx, keys)
	})
	if err != nil {
		return 0, fmt.Errorf("redis DEL: %w", err)
	}
	return res.(int64), nil
}

// Keys lists keys matching a glob pattern using SCAN
func (r *RedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	res, err := r.execute(func() (any, error) {
		var keys []string
		err := r.scan(ctx, pattern, func(batch []string) error {
			keys = append(keys, batch...)
			return nil
		})
		return keys, err
	})
	if err != nil {
		return nil, fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}
	keys, _ := res.([]string)
	return keys, nil
}

// DeletePrefix removes every key beginning with prefix in SCAN batches
func (r *RedisClient) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	pattern := escapeGlob(prefix) + "*"
	res, err := r.execute(func() (any, error) {
		var removed int64
		err := r.scan(ctx, pattern, func(batch []string) error {
			n, err := r.deleteKeys(ctx, batch)
			removed += n
			return err
		})
		return removed, err
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete prefix %s: %w", prefix, err)
	}
	removed := res.(int64)
	r.logger.Debug("Deleted key family", zap.String("prefix", prefix), zap.Int64("removed", removed))
	return removed, nil
}

// FlushAll drops every key in the selected database
func (r *RedisClient) FlushAll(ctx context.Context) error {
	_, err := r.execute(func() (any, error) {
		if cc, ok := r.client.(*redis.ClusterClient); ok {
			return nil, cc.ForEachMaster(ctx, func(ctx context.Context, c *redis.Client) error {
				return c.FlushDB(ctx).Err()
			})
		}
		return nil, r.client.FlushDB(ctx).Err()
	})
	if err != nil {
		return fmt.Errorf("redis FLUSHDB: %w", err)
	}
	r.logger.Info("Cache flushed")
	return nil
}

// Close closes the underlying client
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// deleteKeys issues one DEL per key. Keys of a family may hash to different
// cluster slots, so a multi-key DEL is not safe in cluster mode.
func (r *RedisClient) deleteKeys(ctx context.Context, keys []string) (int64, error) {
	if _, ok := r.client.(*redis.ClusterClient); !ok {
		return r.client.Del(ctx, keys...).Result()
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range cmds {
		n += c.Val()
	}
	return n, nil
}

func (r *RedisClient) scan(ctx context.Context, pattern string, fn func([]string) error) error {
	scanNode := func(ctx context.Context, c redis.UniversalClient) error {
		iter := c.Scan(ctx, 0, pattern, scanBatch).Iterator()
		batch := make([]string, 0, scanBatch)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				if err := fn(batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			return fn(batch)
		}
		return nil
	}

	if cc, ok := r.client.(*redis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, c *redis.Client) error {
			return scanNode(ctx, c)
		})
	}
	return scanNode(ctx, r.client)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
