// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	apperrors "github.com/pantrymatch/pantrymatch/pkg/errors"
)

var (
	// ErrNotFound is returned by repositories when no row matches
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (slug, name, bookmark) already exists
	ErrDuplicate = errors.New("record already exists")
)

// Order is one ORDER BY term
type Order struct {
	Field query.Field
	Desc  bool
}

// FindOptions bounds and orders a FindMany call. Limit 0 means unbounded.
type FindOptions struct {
	OrderBy []Order
	Limit   int
	Offset  int
}

// DishMatch is a dish with the number of distinct query names it contains
type DishMatch struct {
	Dish         *catalog.Dish
	MatchedCount int
}

// Counter names an engagement counter column on a dish
type Counter string

const (
	CounterView     Counter = "view_count"
	CounterClick    Counter = "click_count"
	CounterCook     Counter = "cook_count"
	CounterBookmark Counter = "bookmark_count"
)

// DishRepository persists meals and recipes
type DishRepository interface {
	Create(ctx context.Context, dish *catalog.Dish, lines []catalog.IngredientLine) error
	Update(ctx context.Context, dish *catalog.Dish, lines []catalog.IngredientLine) error
	Delete(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error
	FindByID(ctx context.Context, kind catalog.DishKind, id uuid.UUID) (*catalog.Dish, error)
	FindBySlug(ctx context.Context, kind catalog.DishKind, slug string) (*catalog.Dish, error)
	FindByIDs(ctx context.Context, kind catalog.DishKind, ids []uuid.UUID) ([]*catalog.Dish, error)
	FindIngredientLines(ctx context.Context, kind catalog.DishKind, id uuid.UUID) ([]catalog.IngredientLine, error)

	// FindMany returns dishes satisfying pred
	FindMany(ctx context.Context, kind catalog.DishKind, pred query.Predicate, opts FindOptions) ([]*catalog.Dish, error)
	Count(ctx context.Context, kind catalog.DishKind, pred query.Predicate) (int64, error)

	// RankByOverlap returns one page of dishes satisfying pred ordered by the
	// count of distinct ingredient names equal to one of names, descending,
	// then id ascending
	RankByOverlap(ctx context.Context, kind catalog.DishKind, pred query.Predicate, names []string, limit, offset int) ([]DishMatch, error)

	// FindSimilarCandidates returns dishes other than excludeID sharing at
	// least one ingredient id with ingredientIDs
	FindSimilarCandidates(ctx context.Context, kind catalog.DishKind, excludeID uuid.UUID, ingredientIDs []string) ([]*catalog.Dish, error)

	IncrementCounter(ctx context.Context, kind catalog.DishKind, id uuid.UUID, counter Counter, delta int) error
	CountReferencing(ctx context.Context, ingredientID uuid.UUID) (int64, error)
}

// IngredientFilter narrows an ingredient listing
type IngredientFilter struct {
	Search     string
	CategoryID *uuid.UUID
	IsVeg      *bool
	IsVegan    *bool
	Verified   *bool
}

// IngredientRepository persists the ingredient catalog
type IngredientRepository interface {
	Create(ctx context.Context, ing *catalog.Ingredient) error
	Update(ctx context.Context, ing *catalog.Ingredient) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error)
	FindBySlug(ctx context.Context, slug string) (*catalog.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Ingredient, error)
	// FindByNameOrAlias matches the name case-insensitively or an alias exactly
	FindByNameOrAlias(ctx context.Context, name string) (*catalog.Ingredient, error)
	Search(ctx context.Context, filter IngredientFilter, limit, offset int) ([]catalog.Ingredient, int64, error)
	// Autocomplete matches a name substring or an exact alias
	Autocomplete(ctx context.Context, q string, limit int) ([]catalog.Ingredient, error)
}

// CategoryRepository persists dish and ingredient categories
type CategoryRepository interface {
	Create(ctx context.Context, c *catalog.Category) error
	// FindByNameContains returns the first category of kind whose name contains fragment, case-insensitively
	FindByNameContains(ctx context.Context, kind, fragment string) (*catalog.Category, error)
	List(ctx context.Context, kind string) ([]catalog.Category, error)
}

// ProfileRepository persists dietary profiles
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*user.DietProfile, error)
	Upsert(ctx context.Context, profile *user.DietProfile) error
}

// CookLog is one cook-and-rate record
type CookLog struct {
	ID        uuid.UUID
	Kind      catalog.DishKind
	DishID    uuid.UUID
	UserID    string
	Rating    *int
	Notes     string
	CreatedAt time.Time
}

// EngagementRepository persists bookmarks and cook logs together with the
// dish counters they move
type EngagementRepository interface {
	// AddBookmark inserts the bookmark and increments bookmark_count atomically
	AddBookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error
	// RemoveBookmark deletes the bookmark and decrements bookmark_count atomically
	RemoveBookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error
	ListBookmarks(ctx context.Context, kind catalog.DishKind, userID string, limit, offset int) ([]uuid.UUID, int64, error)
	// AddCookLog inserts the log, increments cook_count and stores the new
	// average rating, returning it
	AddCookLog(ctx context.Context, log *CookLog) (float64, error)
}

// AsAppError maps a repository error onto an application error. resource and
// id name what was being read or written; operation describes the call for
// DATABASE_ERROR details.
func AsAppError(err error, resource, id, operation string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperrors.NewNotFoundError(resource, id).WithCause(err)
	case errors.Is(err, ErrDuplicate):
		return apperrors.NewConflictError(resource + " already exists").WithCause(err)
	case apperrors.GetCode(err) != apperrors.CodeInternal:
		return err
	}
	return apperrors.NewDatabaseError(operation, err)
}
