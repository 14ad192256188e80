// Package search ranks dishes against a pantry and against each other
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/matching"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/validation"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileResolver reads a requester's dietary profile. A nil profile means
// no restrictions.
type ProfileResolver interface {
	GetProfile(ctx context.Context, userID string) (*user.DietProfile, error)
}

// Recorder observes served searches
type Recorder interface {
	SearchServed(kind, source string, total int64, duration time.Duration)
}

// Config tunes ranking and caching
type Config struct {
	DefaultLimit        int
	MaxLimit            int
	MatchMode           matching.Mode
	SimilarDefaultLimit int
	SimilarMaxLimit     int
	// MaxCandidates bounds the rows scored in memory in substring mode
	MaxCandidates int

	SearchTTL       time.Duration
	SimilarTTL      time.Duration
	TrendingTTL     time.Duration
	AutocompleteTTL time.Duration
}

// DefaultConfig returns the stock ranking settings
func DefaultConfig() Config {
	return Config{
		DefaultLimit:        20,
		MaxLimit:            100,
		MatchMode:           matching.ModeExact,
		SimilarDefaultLimit: 10,
		SimilarMaxLimit:     50,
		MaxCandidates:       5000,
		SearchTTL:           300 * time.Second,
		SimilarTTL:          time.Hour,
		TrendingTTL:         300 * time.Second,
		AutocompleteTTL:     30 * time.Minute,
	}
}

// Service implements inbound.SearchService
type Service struct {
	dishes      outbound.DishRepository
	categories  outbound.CategoryRepository
	ingredients outbound.IngredientRepository
	profiles    ProfileResolver
	validator   *validation.Service
	store       *cachepolicy.Store
	keys        cachepolicy.KeyBuilder
	config      Config
	metrics     Recorder
	tracer      trace.Tracer
	logger      *zap.Logger
}

// Dependencies groups what the search service reads from
type Dependencies struct {
	Dishes      outbound.DishRepository
	Categories  outbound.CategoryRepository
	Ingredients outbound.IngredientRepository
	Profiles    ProfileResolver
	Cache       outbound.Cache
	Validator   *validation.Service
	// Metrics and Tracer are optional
	Metrics Recorder
	Tracer  trace.Tracer
}

// NewService creates a new search service
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.MatchMode == "" {
		cfg.MatchMode = defaults.MatchMode
	}
	if cfg.SimilarDefaultLimit <= 0 {
		cfg.SimilarDefaultLimit = defaults.SimilarDefaultLimit
	}
	if cfg.SimilarMaxLimit <= 0 {
		cfg.SimilarMaxLimit = defaults.SimilarMaxLimit
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaults.MaxCandidates
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("pantrymatch/search")
	}

	logger = logger.Named("search-service")
	return &Service{
		dishes:      deps.Dishes,
		categories:  deps.Categories,
		ingredients: deps.Ingredients,
		profiles:    deps.Profiles,
		validator:   deps.Validator,
		store:       cachepolicy.NewStore(deps.Cache, logger),
		keys:        cachepolicy.NewKeyBuilder(),
		config:      cfg,
		metrics:     deps.Metrics,
		tracer:      tracer,
		logger:      logger,
	}
}

var _ inbound.SearchService = (*Service)(nil)

// SearchDishes ranks dishes of q.Kind by how many of the pantry ingredients
// they use. Results are cached per normalized query.
func (s *Service) SearchDishes(ctx context.Context, q inbound.SearchQuery) (*inbound.SearchResult, error) {
	start := time.Now()

	if err := s.validator.Validate(q); err != nil {
		return nil, err
	}
	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be at most %d", s.config.MaxLimit))
	}
	offset, ok := inbound.PageOffset(page, limit)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("page must be at most %d for limit %d", math.MaxInt/limit, limit))
	}
	difficulty, err := catalog.ParseDifficulty(q.Difficulty)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	names := matching.NormalizeSet(q.Ingredients)

	ctx, span := s.tracer.Start(ctx, "search.dishes", trace.WithAttributes(
		attribute.String("dish.kind", string(q.Kind)),
		attribute.Int("search.ingredients", len(names)),
		attribute.Int("search.page", page),
		attribute.Int("search.limit", limit),
	))
	defer span.End()

	key := s.keys.Search(q.Kind, cachepolicy.SearchKeyParts{
		UserID:         strings.TrimSpace(q.UserID),
		Ingredients:    names,
		Category:       q.Category,
		Difficulty:     difficulty,
		MaxCookingTime: q.MaxCookingTime,
		Page:           page,
		Limit:          limit,
	})

	var cached inbound.SearchResult
	if s.store.Fetch(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		s.observe(q.Kind, "cache", cached.Total, start)
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err := s.search(ctx, q, names, difficulty, page, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	s.store.Save(ctx, key, result, s.config.SearchTTL)
	s.observe(q.Kind, "store", result.Total, start)

	s.logger.Debug("Search served from store",
		zap.String("kind", string(q.Kind)),
		zap.Strings("ingredients", names),
		zap.Int64("total", result.Total),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

func (s *Service) search(ctx context.Context, q inbound.SearchQuery, names []string, difficulty catalog.Difficulty, page, limit, offset int) (*inbound.SearchResult, error) {
	profile, err := s.profiles.GetProfile(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	filters, err := s.structuralFilters(ctx, q.Kind, profile, q.Category, difficulty, q.MaxCookingTime)
	if err != nil {
		return nil, err
	}

	var (
		ranked []inbound.RankedDish
		total  int64
	)
	if s.config.MatchMode == matching.ModeSubstring {
		ranked, total, err = s.rankInMemory(ctx, q.Kind, filters, names, limit, offset)
	} else {
		ranked, total, err = s.rankInStore(ctx, q.Kind, filters, names, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	return &inbound.SearchResult{
		Results: ranked,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: total > int64(page*limit),
	}, nil
}

// structuralFilters builds the dietary, category, difficulty and cooking
// time terms shared by both ranking paths
func (s *Service) structuralFilters(ctx context.Context, kind catalog.DishKind, profile *user.DietProfile, category string, difficulty catalog.Difficulty, maxTime *int) (*query.Builder, error) {
	b := query.NewBuilder()

	req := profile.RequiredFlags()
	dietary := []struct {
		field    query.Field
		required bool
	}{
		{query.FieldIsVeg, req.IsVeg},
		{query.FieldIsVegan, req.IsVegan},
		{query.FieldDairyFree, req.DairyFree},
		{query.FieldNutFree, req.NutFree},
		{query.FieldGlutenFree, req.GlutenFree},
		{query.FieldDiabetesFriendly, req.DiabetesFriendly},
	}
	for _, d := range dietary {
		if d.required {
			b.Where(query.Equals{Field: d.field, Value: true})
		}
	}

	if category = strings.TrimSpace(category); category != "" {
		c, err := s.categories.FindByNameContains(ctx, catalog.CategoryKindFor(kind), category)
		switch {
		case err == nil:
			b.Where(query.Equals{Field: query.FieldCategoryID, Value: c.ID})
		case errors.Is(err, outbound.ErrNotFound):
			s.logger.Debug("Ignoring unknown category filter", zap.String("category", category))
		default:
			return nil, outbound.AsAppError(err, "Category", category, "resolve category")
		}
	}

	if difficulty != "" {
		b.Where(query.Equals{Field: query.FieldDifficulty, Value: difficulty})
	}
	if maxTime != nil {
		b.Where(query.LessThanOrEqual{Field: query.FieldCookingTime, Value: *maxTime})
	}
	return b, nil
}

// rankInStore pushes the exact-match ranking down to the store and counts
// the filtered set concurrently
func (s *Service) rankInStore(ctx context.Context, kind catalog.DishKind, filters *query.Builder, names []string, limit, offset int) ([]inbound.RankedDish, int64, error) {
	if len(names) > 0 {
		filters.Where(query.SetOverlaps{Field: query.FieldIngredientNames, Values: names})
	}
	pred := filters.Build()

	var (
		matches []outbound.DishMatch
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.dishes.RankByOverlap(gctx, kind, pred, names, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.dishes.Count(gctx, kind, pred)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, outbound.AsAppError(err, "Dish", "", "search dishes")
	}

	out := make([]inbound.RankedDish, 0, len(matches))
	for _, m := range matches {
		out = append(out, rankedDish(m.Dish, matching.ScoreDish(m.Dish.IngredientNames, names, matching.ModeExact)))
	}
	return out, total, nil
}

// rankInMemory scores every structurally eligible dish with the substring
// matcher. With a non-empty pantry, dishes matching nothing are dropped.
func (s *Service) rankInMemory(ctx context.Context, kind catalog.DishKind, filters *query.Builder, names []string, limit, offset int) ([]inbound.RankedDish, int64, error) {
	candidates, err := s.dishes.FindMany(ctx, kind, filters.Build(), outbound.FindOptions{
		OrderBy: []outbound.Order{{Field: query.FieldID}},
		Limit:   s.config.MaxCandidates,
	})
	if err != nil {
		return nil, 0, outbound.AsAppError(err, "Dish", "", "search dishes")
	}
	if len(candidates) == s.config.MaxCandidates {
		s.logger.Warn("Substring search hit the candidate cap",
			zap.String("kind", string(kind)),
			zap.Int("max_candidates", s.config.MaxCandidates))
	}

	byID := make(map[string]*catalog.Dish, len(candidates))
	items := make([]matching.Ranked, 0, len(candidates))
	for _, d := range candidates {
		score := matching.ScoreDish(d.IngredientNames, names, matching.ModeSubstring)
		if len(names) > 0 && score.MatchedCount == 0 {
			continue
		}
		id := d.ID.String()
		byID[id] = d
		items = append(items, matching.Ranked{ID: id, Score: score})
	}
	matching.SortRanked(items)

	total := int64(len(items))
	if offset >= len(items) {
		return []inbound.RankedDish{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	out := make([]inbound.RankedDish, 0, end-offset)
	for _, it := range items[offset:end] {
		out = append(out, rankedDish(byID[it.ID], it.Score))
	}
	return out, total, nil
}

func rankedDish(d *catalog.Dish, score matching.Score) inbound.RankedDish {
	return inbound.RankedDish{
		DishSummary:     inbound.SummaryOf(d),
		IngredientNames: d.IngredientNames,
		Score:           score,
	}
}

func (s *Service) observe(kind catalog.DishKind, source string, total int64, start time.Time) {
	if s.metrics != nil {
		s.metrics.SearchServed(string(kind), source, total, time.Since(start))
	}
}
