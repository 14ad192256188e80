package inbound

import (
	"context"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
)

// DishService manages meals and recipes
type DishService interface {
	CreateDish(ctx context.Context, cmd CreateDishCommand) (*catalog.Dish, error)
	UpdateDish(ctx context.Context, cmd UpdateDishCommand) (*catalog.Dish, error)
	DeleteDish(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error

	GetDish(ctx context.Context, kind catalog.DishKind, id uuid.UUID, userID string) (*DishDetail, error)
	GetDishBySlug(ctx context.Context, kind catalog.DishKind, slug, userID string) (*DishDetail, error)
	ListDishes(ctx context.Context, q ListDishesQuery) (*DishPage, error)
	Popular(ctx context.Context, kind catalog.DishKind, limit int) ([]DishSummary, error)
	RecordClick(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error
}

// EngagementService records bookmarks and cooks
type EngagementService interface {
	Bookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error
	Unbookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error
	ListBookmarks(ctx context.Context, kind catalog.DishKind, userID string, limit, offset int) (*DishPage, error)
	RateDish(ctx context.Context, cmd RateDishCommand) (float64, error)
}

// IngredientService manages the ingredient catalog
type IngredientService interface {
	CreateIngredient(ctx context.Context, cmd CreateIngredientCommand) (*catalog.Ingredient, error)
	UpdateIngredient(ctx context.Context, cmd UpdateIngredientCommand) (*catalog.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) error
	GetIngredient(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error)
	GetIngredientBySlug(ctx context.Context, slug string) (*catalog.Ingredient, error)
	SearchIngredients(ctx context.Context, q IngredientSearchQuery) (*IngredientPage, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*catalog.Category, error)
}

// ProfileService reads and writes dietary profiles
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*user.DietProfile, error)
	UpsertProfile(ctx context.Context, profile *user.DietProfile) error
}

// IngredientInput references an ingredient by UUID or by name
type IngredientInput struct {
	Ref        string `json:"ref" validate:"required,ingredient"`
	Quantity   string `json:"quantity,omitempty" validate:"max=50"`
	IsOptional bool   `json:"isOptional"`
}

// CreateDishCommand contains data for creating a dish
type CreateDishCommand struct {
	Kind               catalog.DishKind  `validate:"required,oneof=meal recipe"`
	Title              string            `validate:"required,max=200"`
	ShortDescription   string            `validate:"max=500"`
	Instructions       string            `validate:"max=10000"`
	ImageURL           string            `validate:"omitempty,url"`
	Ingredients        []IngredientInput `validate:"dive"`
	Difficulty         string            `validate:"omitempty,difficulty"`
	CookingTimeMinutes *int              `validate:"omitempty,min=0"`
	CategoryID         *uuid.UUID
	DiabetesFriendly   bool
}

// UpdateDishCommand patches a dish. Nil fields are left unchanged; a non-nil
// Ingredients replaces the whole set.
type UpdateDishCommand struct {
	Kind               catalog.DishKind `validate:"required,oneof=meal recipe"`
	ID                 uuid.UUID        `validate:"required"`
	Title              *string          `validate:"omitempty,min=1,max=200"`
	ShortDescription   *string          `validate:"omitempty,max=500"`
	Instructions       *string          `validate:"omitempty,max=10000"`
	ImageURL           *string
	Ingredients        *[]IngredientInput
	Difficulty         *string `validate:"omitempty,difficulty"`
	CookingTimeMinutes *int    `validate:"omitempty,min=0"`
	CategoryID         *uuid.UUID
	DiabetesFriendly   *bool
}

// DishDetail is a dish with its ingredient lines and the requester's
// compatibility verdict
type DishDetail struct {
	*catalog.Dish
	Ingredients []catalog.IngredientLine `json:"ingredients"`
	user.Compatibility
}

// ListDishesQuery pages through a dish catalog
type ListDishesQuery struct {
	Kind       catalog.DishKind `validate:"required,oneof=meal recipe"`
	CategoryID *uuid.UUID
	Difficulty string `validate:"omitempty,difficulty"`
	IsVeg      *bool
	Limit      int `validate:"min=0,max=100"`
	Offset     int `validate:"min=0"`
}

// DishPage is one page of dish summaries
type DishPage struct {
	Dishes  []DishSummary `json:"dishes"`
	Total   int64         `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"hasMore"`
}

// RateDishCommand records that a user cooked a dish, optionally rating it
type RateDishCommand struct {
	Kind   catalog.DishKind `validate:"required,oneof=meal recipe"`
	DishID uuid.UUID        `validate:"required"`
	UserID string           `validate:"required"`
	Rating *int             `validate:"omitempty,min=1,max=5"`
	Notes  string           `validate:"max=1000"`
}

// CreateIngredientCommand contains data for creating an ingredient
type CreateIngredientCommand struct {
	Name       string   `validate:"required,ingredient"`
	Aliases    []string `validate:"dive,max=100"`
	CategoryID *uuid.UUID
	IsVeg      bool
	IsVegan    bool
	IsDairy    bool
	IsNut      bool
	IsGluten   bool
}

// UpdateIngredientCommand patches an ingredient
type UpdateIngredientCommand struct {
	ID         uuid.UUID `validate:"required"`
	Name       *string   `validate:"omitempty,min=1,max=100"`
	Aliases    *[]string
	CategoryID *uuid.UUID
	IsVeg      *bool
	IsVegan    *bool
	IsDairy    *bool
	IsNut      *bool
	IsGluten   *bool
	IsVerified *bool
}

// IngredientSearchQuery pages through ingredients
type IngredientSearchQuery struct {
	Search     string `validate:"max=100"`
	CategoryID *uuid.UUID
	IsVeg      *bool
	IsVegan    *bool
	Page       int `validate:"min=0"`
	Limit      int `validate:"min=0,max=100"`
}

// IngredientPage is one page of ingredients
type IngredientPage struct {
	Ingredients []catalog.Ingredient `json:"ingredients"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	HasMore     bool                 `json:"hasMore"`
}
