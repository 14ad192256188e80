package cachepolicy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"go.uber.org/zap"
)

// Mode selects how catalog writes clear derived entries
type Mode string

const (
	// ModePrefix deletes the affected key families
	ModePrefix Mode = "prefix"
	// ModeFlush drops the whole cache on catalog writes
	ModeFlush Mode = "flush"
)

// InvalidationRecorder counts invalidation outcomes
type InvalidationRecorder interface {
	Invalidation(event, status string)
}

// Plan lists what one event invalidates
type Plan struct {
	Keys     []string
	Prefixes []string
	Flush    bool
}

// Empty reports whether the plan does nothing
func (p Plan) Empty() bool {
	return len(p.Keys) == 0 && len(p.Prefixes) == 0 && !p.Flush
}

// CoordinatorConfig tunes a Coordinator
type CoordinatorConfig struct {
	Mode           Mode
	MaxRetries     uint64
	InitialBackoff time.Duration
}

// Coordinator turns domain change events into cache deletions
type Coordinator struct {
	cache   outbound.Cache
	keys    KeyBuilder
	config  CoordinatorConfig
	metrics InvalidationRecorder
	logger  *zap.Logger
}

// NewCoordinator creates an invalidation coordinator. metrics may be nil.
func NewCoordinator(cache outbound.Cache, cfg CoordinatorConfig, metrics InvalidationRecorder, logger *zap.Logger) *Coordinator {
	if cfg.Mode == "" {
		cfg.Mode = ModePrefix
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 50 * time.Millisecond
	}
	return &Coordinator{
		cache:   cache,
		keys:    NewKeyBuilder(),
		config:  cfg,
		metrics: metrics,
		logger:  logger.Named("cache-invalidation"),
	}
}

// PlanFor returns the invalidation plan of event
func (c *Coordinator) PlanFor(event shared.DomainEvent) Plan {
	kb := c.keys
	switch e := event.(type) {
	case catalog.IngredientChangedEvent:
		if c.config.Mode == ModeFlush {
			return Plan{Flush: true}
		}
		plan := Plan{
			Keys:     []string{kb.Ingredient(e.IngredientID)},
			Prefixes: []string{kb.IngredientFamily(), kb.AutocompleteFamily()},
		}
		plan.Keys = appendSlugKeys(plan.Keys, kb.IngredientSlug, e.Slug, e.PreviousSlug)
		return plan

	case catalog.DishChangedEvent:
		if c.config.Mode == ModeFlush {
			return Plan{Flush: true}
		}
		plan := Plan{
			Keys: []string{
				kb.Dish(e.Kind, e.DishID),
				kb.DishIngredients(e.Kind, e.DishID),
			},
			Prefixes: []string{
				kb.SimilarFamily(e.Kind, e.DishID),
				kb.SearchFamily(e.Kind),
				kb.TrendingFamily(e.Kind),
				kb.PopularFamily(e.Kind),
			},
		}
		plan.Keys = appendSlugKeys(plan.Keys, func(slug string) string {
			return kb.DishSlug(e.Kind, slug)
		}, e.Slug, e.PreviousSlug)
		return plan

	case catalog.DishEngagedEvent:
		keys := appendSlugKeys([]string{kb.Dish(e.Kind, e.DishID)}, func(slug string) string {
			return kb.DishSlug(e.Kind, slug)
		}, e.Slug)
		return Plan{Keys: keys}

	case catalog.ProfileChangedEvent:
		return Plan{Keys: []string{kb.Profile(e.UserID)}}
	}
	return Plan{}
}

func appendSlugKeys(keys []string, build func(string) string, slugs ...string) []string {
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		keys = append(keys, build(s))
	}
	return keys
}

// Handle applies the plan of event. Failures are retried, then logged and
// counted; they never propagate to the write that raised the event.
func (c *Coordinator) Handle(ctx context.Context, event shared.DomainEvent) {
	plan := c.PlanFor(event)
	if plan.Empty() {
		return
	}

	name := event.EventName()
	if err := c.Apply(ctx, plan); err != nil {
		c.logger.Error("Cache invalidation failed",
			zap.String("event", name),
			zap.Strings("keys", plan.Keys),
			zap.Strings("prefixes", plan.Prefixes),
			zap.Bool("flush", plan.Flush),
			zap.Error(err))
		c.record(name, "failed")
		return
	}

	c.logger.Debug("Cache invalidated",
		zap.String("event", name),
		zap.Int("keys", len(plan.Keys)),
		zap.Int("prefixes", len(plan.Prefixes)),
		zap.Bool("flush", plan.Flush))
	c.record(name, "ok")
}

// Apply executes plan, retrying each step with exponential backoff
func (c *Coordinator) Apply(ctx context.Context, plan Plan) error {
	if plan.Flush {
		return c.retry(ctx, func() error {
			return c.cache.FlushAll(ctx)
		})
	}

	var errs []error
	if len(plan.Keys) > 0 {
		if err := c.retry(ctx, func() error {
			_, err := c.cache.Delete(ctx, plan.Keys...)
			return err
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete keys: %w", err))
		}
	}
	for _, prefix := range plan.Prefixes {
		prefix := prefix
		if err := c.retry(ctx, func() error {
			_, err := c.cache.DeletePrefix(ctx, prefix)
			return err
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete prefix %q: %w", prefix, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Coordinator) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialBackoff
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.config.MaxRetries), ctx))
}

func (c *Coordinator) record(event, status string) {
	if c.metrics != nil {
		c.metrics.Invalidation(event, status)
	}
}
