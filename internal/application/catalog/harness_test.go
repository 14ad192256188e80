package catalog_test

import (
	"context"
	"testing"
	"time"

	app "github.com/pantrymatch/pantrymatch/internal/application/catalog"
	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/application/profile"
	"github.com/pantrymatch/pantrymatch/internal/application/search"
	"github.com/pantrymatch/pantrymatch/internal/domain/shared"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/memory"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/validation"
	"github.com/pantrymatch/pantrymatch/test/testutils"
	"go.uber.org/zap"
)

// fanout delivers every event to each handler in order
type fanout []app.EventHandler

func (f fanout) Handle(ctx context.Context, event shared.DomainEvent) {
	for _, h := range f {
		h.Handle(ctx, event)
	}
}

// harness wires the catalog services the way the container does, over
// sqlite and the in-memory cache
type harness struct {
	dishRepo       *gorm.DishRepository
	ingredientRepo *gorm.IngredientRepository
	categoryRepo   *gorm.CategoryRepository
	profileRepo    *gorm.ProfileRepository
	cache          *memory.CacheRepository
	keys           cachepolicy.KeyBuilder
	events         *testutils.RecordingEventHandler
	metrics        *testutils.RecordingMetrics

	dishes      *app.DishService
	ingredients *app.IngredientService
	engagement  *app.EngagementService
	profiles    *profile.Service
	search      *search.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutils.NewTestDB(t)
	logger := zap.NewNop()

	h := &harness{
		dishRepo:       gorm.NewDishRepository(db),
		ingredientRepo: gorm.NewIngredientRepository(db),
		categoryRepo:   gorm.NewCategoryRepository(db),
		profileRepo:    gorm.NewProfileRepository(db),
		cache:          memory.NewCacheRepository(0),
		keys:           cachepolicy.NewKeyBuilder(),
		events:         &testutils.RecordingEventHandler{},
		metrics:        testutils.NewRecordingMetrics(),
	}
	t.Cleanup(func() { h.cache.Close() })

	coordinator := cachepolicy.NewCoordinator(h.cache, cachepolicy.CoordinatorConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
	}, h.metrics, logger)
	events := fanout{coordinator, h.events}
	validator := validation.NewService(logger)

	h.profiles = profile.NewService(h.profileRepo, h.cache, events, time.Hour, logger)
	h.dishes = app.NewDishService(app.DishDependencies{
		Dishes:      h.dishRepo,
		Ingredients: h.ingredientRepo,
		Profiles:    h.profiles,
		Cache:       h.cache,
		Validator:   validator,
		Events:      events,
		Metrics:     h.metrics,
	}, app.DefaultTTLs(), logger)
	h.ingredients = app.NewIngredientService(app.IngredientDependencies{
		Ingredients: h.ingredientRepo,
		Dishes:      h.dishRepo,
		Categories:  h.categoryRepo,
		Cache:       h.cache,
		Validator:   validator,
		Events:      events,
		Metrics:     h.metrics,
	}, app.DefaultTTLs(), logger)
	h.engagement = app.NewEngagementService(gorm.NewEngagementRepository(db), h.dishRepo, validator, events, h.metrics, logger)
	h.search = search.NewService(search.Dependencies{
		Dishes:      h.dishRepo,
		Categories:  h.categoryRepo,
		Ingredients: h.ingredientRepo,
		Profiles:    h.profiles,
		Cache:       h.cache,
		Validator:   validator,
	}, search.DefaultConfig(), logger)
	return h
}

func (h *harness) cached(ctx context.Context, key string) bool {
	_, err := h.cache.Get(ctx, key)
	return err == nil
}
