// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/stretchr/testify/require"
)

// IngredientBuilder provides a fluent interface for building test ingredients
type IngredientBuilder struct {
	name       string
	aliases    []string
	veg        bool
	vegan      bool
	dairy      bool
	nut        bool
	gluten     bool
	verified   bool
	category   *catalog.Category
}

// NewIngredientBuilder creates a vegan, allergen-free, verified ingredient
// builder with a random name
func NewIngredientBuilder() *IngredientBuilder {
	faker := gofakeit.New(time.Now().UnixNano())
	return &IngredientBuilder{
		name:     fmt.Sprintf("%s %s", faker.Adjective(), faker.Vegetable()),
		veg:      true,
		vegan:    true,
		verified: true,
	}
}

// Named sets the ingredient name
func (b *IngredientBuilder) Named(name string) *IngredientBuilder {
	b.name = name
	return b
}

// WithAliases sets the lower-cased aliases
func (b *IngredientBuilder) WithAliases(aliases ...string) *IngredientBuilder {
	b.aliases = aliases
	return b
}

// NonVeg clears the veg and vegan tags
func (b *IngredientBuilder) NonVeg() *IngredientBuilder {
	b.veg, b.vegan = false, false
	return b
}

// Dairy marks the ingredient as a vegetarian dairy product
func (b *IngredientBuilder) Dairy() *IngredientBuilder {
	b.dairy, b.vegan = true, false
	return b
}

// Nut marks the ingredient as a nut
func (b *IngredientBuilder) Nut() *IngredientBuilder {
	b.nut = true
	return b
}

// Gluten marks the ingredient as containing gluten
func (b *IngredientBuilder) Gluten() *IngredientBuilder {
	b.gluten = true
	return b
}

// Unverified marks the ingredient as provisional
func (b *IngredientBuilder) Unverified() *IngredientBuilder {
	b.verified = false
	return b
}

// InCategory sets the ingredient category
func (b *IngredientBuilder) InCategory(c *catalog.Category) *IngredientBuilder {
	b.category = c
	return b
}

// Build constructs the ingredient
func (b *IngredientBuilder) Build() *catalog.Ingredient {
	ing, err := catalog.NewIngredient(b.name)
	if err != nil {
		panic(fmt.Sprintf("invalid test ingredient %q: %v", b.name, err))
	}
	if b.aliases != nil {
		ing.Aliases = b.aliases
	}
	ing.IsVeg = b.veg
	ing.IsVegan = b.vegan
	ing.IsDairy = b.dairy
	ing.IsNut = b.nut
	ing.IsGluten = b.gluten
	ing.IsVerified = b.verified
	if b.category != nil {
		ing.CategoryID = &b.category.ID
	}
	return ing
}

// Create builds the ingredient and stores it
func (b *IngredientBuilder) Create(t *testing.T, repo outbound.IngredientRepository) *catalog.Ingredient {
	t.Helper()
	ing := b.Build()
	require.NoError(t, repo.Create(context.Background(), ing))
	return ing
}

// DishBuilder provides a fluent interface for building test dishes
type DishBuilder struct {
	kind        catalog.DishKind
	title       string
	difficulty  catalog.Difficulty
	cookingTime *int
	category    *catalog.Category
	ingredients []catalog.Ingredient
	diabetes    bool
	clicks      int64
}

// NewDishBuilder creates a meal builder with a random title
func NewDishBuilder() *DishBuilder {
	faker := gofakeit.New(time.Now().UnixNano())
	return &DishBuilder{
		kind:       catalog.KindMeal,
		title:      fmt.Sprintf("%s %s %d", faker.AdjectiveDescriptive(), faker.Dinner(), faker.Number(1, 1_000_000)),
		difficulty: catalog.DifficultyMedium,
	}
}

// OfKind sets the dish kind
func (b *DishBuilder) OfKind(kind catalog.DishKind) *DishBuilder {
	b.kind = kind
	return b
}

// Titled sets the dish title
func (b *DishBuilder) Titled(title string) *DishBuilder {
	b.title = title
	return b
}

// WithDifficulty sets the difficulty
func (b *DishBuilder) WithDifficulty(d catalog.Difficulty) *DishBuilder {
	b.difficulty = d
	return b
}

// WithCookingTime sets the cooking time in minutes
func (b *DishBuilder) WithCookingTime(minutes int) *DishBuilder {
	b.cookingTime = &minutes
	return b
}

// InCategory sets the dish category
func (b *DishBuilder) InCategory(c *catalog.Category) *DishBuilder {
	b.category = c
	return b
}

// With sets the ingredient set
func (b *DishBuilder) With(ings ...*catalog.Ingredient) *DishBuilder {
	b.ingredients = b.ingredients[:0]
	for _, ing := range ings {
		b.ingredients = append(b.ingredients, *ing)
	}
	return b
}

// DiabetesFriendly sets the diabetes flag
func (b *DishBuilder) DiabetesFriendly() *DishBuilder {
	b.diabetes = true
	return b
}

// WithClicks sets the click counter written by Create
func (b *DishBuilder) WithClicks(n int64) *DishBuilder {
	b.clicks = n
	return b
}

// Build constructs the dish and its ingredient lines
func (b *DishBuilder) Build() (*catalog.Dish, []catalog.IngredientLine) {
	d, err := catalog.NewDish(b.kind, b.title, b.difficulty)
	if err != nil {
		panic(fmt.Sprintf("invalid test dish %q: %v", b.title, err))
	}
	d.CookingTimeMinutes = b.cookingTime
	if b.category != nil {
		d.CategoryID = &b.category.ID
	}
	d.SetIngredients(b.ingredients, b.diabetes)

	lines := make([]catalog.IngredientLine, 0, len(b.ingredients))
	for _, ing := range b.ingredients {
		lines = append(lines, catalog.LineFor(ing, "1 cup", false))
	}
	return d, lines
}

// Create builds the dish, stores it and applies the configured counters
func (b *DishBuilder) Create(t *testing.T, repo outbound.DishRepository) *catalog.Dish {
	t.Helper()
	ctx := context.Background()
	d, lines := b.Build()
	require.NoError(t, repo.Create(ctx, d, lines))
	if b.clicks > 0 {
		require.NoError(t, repo.IncrementCounter(ctx, d.Kind, d.ID, outbound.CounterClick, int(b.clicks)))
		d.ClickCount = b.clicks
	}
	return d
}

// NewTestCategory builds a category of kind with a random name
func NewTestCategory(kind, name string) *catalog.Category {
	if name == "" {
		name = catalog.CapitalizeWords(gofakeit.New(time.Now().UnixNano()).Word())
	}
	return &catalog.Category{
		ID:   uuid.New(),
		Kind: kind,
		Name: name,
	}
}

// NewTestProfile builds a dietary profile for userID
func NewTestProfile(userID string, veg user.VegType, allergies ...string) *user.DietProfile {
	p := &user.DietProfile{
		UserID:    userID,
		VegType:   veg,
		UpdatedAt: time.Now(),
	}
	for _, a := range allergies {
		switch a {
		case "dairy":
			p.DairyFree = true
		case "nut":
			p.NutFree = true
		case "gluten":
			p.GlutenFree = true
		case "diabetes":
			p.HasDiabetes = true
		}
	}
	return p
}
