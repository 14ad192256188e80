package search

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/matching"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FindSimilar ranks the dishes sharing ingredients with dishID by Jaccard
// similarity of their ingredient id sets. Entries live for the similar TTL
// and are not dropped when other dishes change.
func (s *Service) FindSimilar(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, limit int) ([]inbound.SimilarDish, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown dish kind %q", kind))
	}
	if limit == 0 {
		limit = s.config.SimilarDefaultLimit
	}
	if limit < 0 || limit > s.config.SimilarMaxLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", s.config.SimilarMaxLimit))
	}

	ctx, span := s.tracer.Start(ctx, "search.similar", trace.WithAttributes(
		attribute.String("dish.kind", string(kind)),
		attribute.String("dish.id", dishID.String()),
		attribute.Int("similar.limit", limit),
	))
	defer span.End()

	out, hit, err := cachepolicy.Remember(ctx, s.store, s.keys.Similar(kind, dishID, limit), s.config.SimilarTTL,
		func(ctx context.Context) ([]inbound.SimilarDish, error) {
			return s.similar(ctx, kind, dishID, limit)
		})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	return out, nil
}

func (s *Service) similar(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, limit int) ([]inbound.SimilarDish, error) {
	source, err := s.dishes.FindByID(ctx, kind, dishID)
	if err != nil {
		return nil, outbound.AsAppError(err, capitalized(kind), dishID.String(), "load dish")
	}

	candidates, err := s.dishes.FindSimilarCandidates(ctx, kind, dishID, source.IngredientIDs)
	if err != nil {
		return nil, outbound.AsAppError(err, "Dish", "", "find similar dishes")
	}

	byID := make(map[string]*catalog.Dish, len(candidates))
	items := make([]matching.Ranked, 0, len(candidates))
	for _, c := range candidates {
		shared, pct := matching.Jaccard(source.IngredientIDs, c.IngredientIDs)
		if shared == 0 {
			continue
		}
		id := c.ID.String()
		byID[id] = c
		items = append(items, matching.Ranked{
			ID:    id,
			Score: matching.Score{MatchedCount: shared, MatchPercentage: pct},
		})
	}
	matching.SortRanked(items)
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]inbound.SimilarDish, 0, len(items))
	for _, it := range items {
		d := byID[it.ID]
		out = append(out, inbound.SimilarDish{
			DishSummary:          inbound.SummaryOf(d),
			IngredientNames:      d.IngredientNames,
			MatchingCount:        it.Score.MatchedCount,
			TotalIngredients:     len(d.IngredientIDs),
			SimilarityPercentage: it.Score.MatchPercentage,
		})
	}

	s.logger.Debug("Similar dishes computed",
		zap.String("kind", string(kind)),
		zap.String("dish_id", dishID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(out)))

	return out, nil
}

func capitalized(kind catalog.DishKind) string {
	if kind == catalog.KindRecipe {
		return "Recipe"
	}
	return "Meal"
}
