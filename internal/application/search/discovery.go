package search

import (
	"context"
	"fmt"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
)

const (
	defaultTrendingLimit     = 10
	defaultAutocompleteLimit = 10
	maxDiscoveryLimit        = 50
)

func discoveryLimit(limit, def int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 0 || limit > maxDiscoveryLimit {
		return 0, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", maxDiscoveryLimit))
	}
	return limit, nil
}

// Trending lists clicked dishes, most clicked first, newest first among ties
func (s *Service) Trending(ctx context.Context, kind catalog.DishKind, limit int) ([]inbound.DishSummary, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown dish kind %q", kind))
	}
	limit, err := discoveryLimit(limit, defaultTrendingLimit)
	if err != nil {
		return nil, err
	}

	out, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Trending(kind, limit), s.config.TrendingTTL,
		func(ctx context.Context) ([]inbound.DishSummary, error) {
			dishes, err := s.dishes.FindMany(ctx, kind,
				query.GreaterThan{Field: query.FieldClickCount, Value: 0},
				outbound.FindOptions{
					OrderBy: []outbound.Order{
						{Field: query.FieldClickCount, Desc: true},
						{Field: query.FieldCreatedAt, Desc: true},
					},
					Limit: limit,
				})
			if err != nil {
				return nil, outbound.AsAppError(err, "Dish", "", "list trending dishes")
			}
			return summaries(dishes), nil
		})
	return out, err
}

// AutocompleteIngredients suggests ingredients whose name contains q or
// whose alias equals q, verified ingredients first
func (s *Service) AutocompleteIngredients(ctx context.Context, q string, limit int) ([]inbound.IngredientSuggestion, error) {
	q = catalog.NormalizeName(q)
	if q == "" {
		return []inbound.IngredientSuggestion{}, nil
	}
	if len(q) > 100 {
		return nil, apperrors.NewValidationError("query must be at most 100 characters")
	}
	limit, err := discoveryLimit(limit, defaultAutocompleteLimit)
	if err != nil {
		return nil, err
	}

	out, _, err := cachepolicy.Remember(ctx, s.store, s.keys.Autocomplete(q, limit), s.config.AutocompleteTTL,
		func(ctx context.Context) ([]inbound.IngredientSuggestion, error) {
			ings, err := s.ingredients.Autocomplete(ctx, q, limit)
			if err != nil {
				return nil, outbound.AsAppError(err, "Ingredient", "", "autocomplete ingredients")
			}
			suggestions := make([]inbound.IngredientSuggestion, 0, len(ings))
			for _, ing := range ings {
				suggestions = append(suggestions, inbound.IngredientSuggestion{
					ID:   ing.ID,
					Name: ing.Name,
					Slug: ing.Slug,
				})
			}
			return suggestions, nil
		})
	return out, err
}

func summaries(dishes []*catalog.Dish) []inbound.DishSummary {
	out := make([]inbound.DishSummary, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, inbound.SummaryOf(d))
	}
	return out
}
