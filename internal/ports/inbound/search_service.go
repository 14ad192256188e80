// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the application exposes to the outside world
package inbound

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/matching"
)

// SearchService ranks dishes against a pantry
type SearchService interface {
	SearchDishes(ctx context.Context, q SearchQuery) (*SearchResult, error)
	FindSimilar(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, limit int) ([]SimilarDish, error)
	Trending(ctx context.Context, kind catalog.DishKind, limit int) ([]DishSummary, error)
	AutocompleteIngredients(ctx context.Context, q string, limit int) ([]IngredientSuggestion, error)
}

// SearchQuery is a pantry search request. Zero Page and Limit take defaults.
type SearchQuery struct {
	UserID         string           `json:"userId"`
	Kind           catalog.DishKind `json:"kind" validate:"required,oneof=meal recipe"`
	Ingredients    []string         `json:"ingredients" validate:"max=50,dive,max=100"`
	Category       string           `json:"category,omitempty" validate:"max=100"`
	Difficulty     string           `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	MaxCookingTime *int             `json:"maxCookingTime,omitempty" validate:"omitempty,min=0"`
	Page           int              `json:"page" validate:"min=0"`
	Limit          int              `json:"limit" validate:"min=0,max=100"`
}

// RankedDish is one scored search hit
type RankedDish struct {
	DishSummary
	IngredientNames []string `json:"ingredientNames"`
	matching.Score
}

// SearchResult is one page of ranked hits
type SearchResult struct {
	Results []RankedDish `json:"results"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
	HasMore bool         `json:"hasMore"`
}

// PageOffset returns the row offset of a 1-based page. ok is false when
// page*limit does not fit in an int.
func PageOffset(page, limit int) (offset int, ok bool) {
	if page < 1 || limit < 1 || page > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

// SimilarDish is a dish sharing ingredients with a source dish
type SimilarDish struct {
	DishSummary
	IngredientNames      []string `json:"ingredientNames"`
	MatchingCount        int      `json:"matchingCount"`
	TotalIngredients     int      `json:"totalIngredients"`
	SimilarityPercentage int      `json:"similarityPercentage"`
}

// DishSummary is the list projection of a dish
type DishSummary struct {
	ID                 uuid.UUID            `json:"id"`
	Title              string               `json:"title"`
	Slug               string               `json:"slug"`
	ShortDescription   string               `json:"shortDescription,omitempty"`
	ImageURL           string               `json:"imageUrl,omitempty"`
	CookingTimeMinutes *int                 `json:"cookingTimeMinutes,omitempty"`
	Difficulty         catalog.Difficulty   `json:"difficulty"`
	Flags              catalog.DietaryFlags `json:"flags"`
	ClickCount         int64                `json:"clickCount"`
	CookCount          int64                `json:"cookCount"`
	BookmarkCount      int64                `json:"bookmarkCount"`
	AvgRating          float64              `json:"avgRating"`
}

// SummaryOf projects a dish into its list form
func SummaryOf(d *catalog.Dish) DishSummary {
	return DishSummary{
		ID:                 d.ID,
		Title:              d.Title,
		Slug:               d.Slug,
		ShortDescription:   d.ShortDescription,
		ImageURL:           d.ImageURL,
		CookingTimeMinutes: d.CookingTimeMinutes,
		Difficulty:         d.Difficulty,
		Flags:              d.Flags,
		ClickCount:         d.ClickCount,
		CookCount:          d.CookCount,
		BookmarkCount:      d.BookmarkCount,
		AvgRating:          d.AvgRating,
	}
}

// IngredientSuggestion is an autocomplete hit
type IngredientSuggestion struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}
