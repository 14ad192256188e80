package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DishKind distinguishes the two dish catalogs that share one search path
type DishKind string

const (
	KindMeal   DishKind = "meal"
	KindRecipe DishKind = "recipe"
)

// Valid reports whether k is a known dish kind
func (k DishKind) Valid() bool {
	return k == KindMeal || k == KindRecipe
}

// Difficulty is the cooking difficulty of a dish
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ParseDifficulty accepts a difficulty in any letter case. Empty input
// yields the empty difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	if s == "" {
		return "", nil
	}
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

// DietaryFlags are the aggregate dietary properties of a dish
type DietaryFlags struct {
	IsVeg            bool `json:"isVeg"`
	IsVegan          bool `json:"isVegan"`
	DairyFree        bool `json:"dairyFree"`
	NutFree          bool `json:"nutFree"`
	GlutenFree       bool `json:"glutenFree"`
	DiabetesFriendly bool `json:"diabetesFriendly"`
}

// ComputeFlags derives the dietary flags of an ingredient set. Veg and vegan
// hold only when every ingredient carries them; the allergen-free flags hold
// only when no ingredient carries the allergen. The empty set is permissive.
// DiabetesFriendly cannot be derived and is left false.
func ComputeFlags(ingredients []Ingredient) DietaryFlags {
	flags := DietaryFlags{
		IsVeg:      true,
		IsVegan:    true,
		DairyFree:  true,
		NutFree:    true,
		GlutenFree: true,
	}
	for _, ing := range ingredients {
		flags.IsVeg = flags.IsVeg && ing.IsVeg
		flags.IsVegan = flags.IsVegan && ing.IsVegan
		flags.DairyFree = flags.DairyFree && !ing.IsDairy
		flags.NutFree = flags.NutFree && !ing.IsNut
		flags.GlutenFree = flags.GlutenFree && !ing.IsGluten
	}
	return flags
}

// Dish is a meal or recipe with denormalized ingredient arrays
type Dish struct {
	ID                 uuid.UUID    `json:"id"`
	Kind               DishKind     `json:"kind"`
	Title              string       `json:"title"`
	Slug               string       `json:"slug"`
	ShortDescription   string       `json:"shortDescription,omitempty"`
	Instructions       string       `json:"instructions,omitempty"`
	ImageURL           string       `json:"imageUrl,omitempty"`
	IngredientIDs      []string     `json:"ingredientIds"`
	IngredientNames    []string     `json:"ingredientNames"`
	IngredientSlugs    []string     `json:"ingredientSlugs"`
	Flags              DietaryFlags `json:"flags"`
	Difficulty         Difficulty   `json:"difficulty"`
	CookingTimeMinutes *int         `json:"cookingTimeMinutes,omitempty"`
	CategoryID         *uuid.UUID   `json:"categoryId,omitempty"`
	ViewCount          int64        `json:"viewCount"`
	ClickCount         int64        `json:"clickCount"`
	CookCount          int64        `json:"cookCount"`
	BookmarkCount      int64        `json:"bookmarkCount"`
	AvgRating          float64      `json:"avgRating"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// IngredientLine is one ingredient as listed on a dish, with its amount
type IngredientLine struct {
	IngredientID uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Quantity     string    `json:"quantity,omitempty"`
	IsOptional   bool      `json:"isOptional"`
	IsVeg        bool      `json:"isVeg"`
	IsVegan      bool      `json:"isVegan"`
	IsDairy      bool      `json:"isDairy"`
	IsNut        bool      `json:"isNut"`
	IsGluten     bool      `json:"isGluten"`
}

// LineFor builds the listing line of ing
func LineFor(ing Ingredient, quantity string, optional bool) IngredientLine {
	return IngredientLine{
		IngredientID: ing.ID,
		Name:         ing.Name,
		Slug:         ing.Slug,
		Quantity:     quantity,
		IsOptional:   optional,
		IsVeg:        ing.IsVeg,
		IsVegan:      ing.IsVegan,
		IsDairy:      ing.IsDairy,
		IsNut:        ing.IsNut,
		IsGluten:     ing.IsGluten,
	}
}

// DishSlugMaxLength bounds generated dish slugs
const DishSlugMaxLength = 100

// NewDish creates a dish of the given kind with a derived slug
func NewDish(kind DishKind, title string, difficulty Difficulty) (*Dish, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	slug := SlugifyMax(title, DishSlugMaxLength)
	if slug == "" {
		return nil, ErrInvalidSlug
	}
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	now := time.Now()
	return &Dish{
		ID:              uuid.New(),
		Kind:            kind,
		Title:           title,
		Slug:            slug,
		IngredientIDs:   []string{},
		IngredientNames: []string{},
		IngredientSlugs: []string{},
		Flags:           ComputeFlags(nil),
		Difficulty:      difficulty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SetIngredients replaces the ingredient set, rebuilding the three aligned
// arrays and recomputing the dietary flags from scratch. The diabetes flag is
// carried over from the caller.
func (d *Dish) SetIngredients(ingredients []Ingredient, diabetesFriendly bool) {
	d.IngredientIDs = make([]string, 0, len(ingredients))
	d.IngredientNames = make([]string, 0, len(ingredients))
	d.IngredientSlugs = make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		d.IngredientIDs = append(d.IngredientIDs, ing.ID.String())
		d.IngredientNames = append(d.IngredientNames, NormalizeName(ing.Name))
		d.IngredientSlugs = append(d.IngredientSlugs, ing.Slug)
	}
	d.Flags = ComputeFlags(ingredients)
	d.Flags.DiabetesFriendly = diabetesFriendly
	d.UpdatedAt = time.Now()
}

// Retitle changes the title and slug together
func (d *Dish) Retitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleRequired
	}
	slug := SlugifyMax(title, DishSlugMaxLength)
	if slug == "" {
		return ErrInvalidSlug
	}
	d.Title = title
	d.Slug = slug
	d.UpdatedAt = time.Now()
	return nil
}

// Category groups dishes or ingredients
type Category struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// Category kinds
const (
	CategoryKindMeal       = "meal"
	CategoryKindRecipe     = "recipe"
	CategoryKindIngredient = "ingredient"
)

// CategoryKindFor maps a dish kind to its category namespace
func CategoryKindFor(kind DishKind) string {
	if kind == KindRecipe {
		return CategoryKindRecipe
	}
	return CategoryKindMeal
}
