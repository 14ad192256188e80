package cache

import (
	"context"
	"errors"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/monitoring"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"go.uber.org/zap"
)

// InstrumentedCache reports every call on the wrapped cache to Prometheus
type InstrumentedCache struct {
	next    outbound.Cache
	backend string
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

var _ outbound.Cache = (*InstrumentedCache)(nil)

// NewInstrumentedCache wraps next. backend labels the metrics ("redis", "memory").
func NewInstrumentedCache(next outbound.Cache, backend string, metrics *monitoring.MetricsCollector, logger *zap.Logger) *InstrumentedCache {
	return &InstrumentedCache{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  logger.Named("cache"),
	}
}

func (c *InstrumentedCache) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, outbound.ErrCacheMiss):
		status = "miss"
	case errors.Is(err, ErrCircuitOpen):
		status = "rejected"
	case err != nil:
		status = "error"
		c.logger.Warn("Cache operation failed",
			zap.String("operation", op),
			zap.String("backend", c.backend),
			zap.Error(err))
	case op == "get":
		status = "hit"
	}
	if c.metrics != nil {
		c.metrics.CacheOperation(op, c.backend, status, time.Since(start))
	}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := c.next.Get(ctx, key)
	c.observe("get", start, err)
	return v, err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.next.Set(ctx, key, value, ttl)
	c.observe("set", start, err)
	return err
}

func (c *InstrumentedCache) Delete(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.next.Delete(ctx, keys...)
	c.observe("delete", start, err)
	return n, err
}

func (c *InstrumentedCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	keys, err := c.next.Keys(ctx, pattern)
	c.observe("keys", start, err)
	return keys, err
}

func (c *InstrumentedCache) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	start := time.Now()
	n, err := c.next.DeletePrefix(ctx, prefix)
	c.observe("delete_prefix", start, err)
	return n, err
}

func (c *InstrumentedCache) FlushAll(ctx context.Context) error {
	start := time.Now()
	err := c.next.FlushAll(ctx)
	c.observe("flush", start, err)
	return err
}

func (c *InstrumentedCache) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.next.Ping(ctx)
	c.observe("ping", start, err)
	return err
}
