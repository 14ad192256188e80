package catalog_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/test/testutils"
	"github.com/stretchr/testify/suite"
)

// IngredientServiceTestSuite tests the ingredient catalog and how its
// changes reach dishes and cached searches
type IngredientServiceTestSuite struct {
	suite.Suite
	ctx  context.Context
	h    *harness
	errs *testutils.ErrorAssertions
}

func (s *IngredientServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.h = newHarness(s.T())
	s.errs = testutils.NewErrorAssertions(s.T())
}

func (s *IngredientServiceTestSuite) ingredient(name string, aliases ...string) *catalog.Ingredient {
	ing, err := s.h.ingredients.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{
		Name:    name,
		Aliases: aliases,
		IsVeg:   true,
		IsVegan: true,
	})
	s.Require().NoError(err)
	return ing
}

func (s *IngredientServiceTestSuite) dish(title string, refs ...string) *catalog.Dish {
	inputs := make([]inbound.IngredientInput, 0, len(refs))
	for _, r := range refs {
		inputs = append(inputs, inbound.IngredientInput{Ref: r, Quantity: "100 g"})
	}
	d, err := s.h.dishes.CreateDish(s.ctx, inbound.CreateDishCommand{Kind: catalog.KindMeal, Title: title, Ingredients: inputs})
	s.Require().NoError(err)
	return d
}

func (s *IngredientServiceTestSuite) TestCreateIngredient() {
	// Act
	ing, err := s.h.ingredients.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{
		Name:    " Chickpea ",
		Aliases: []string{"Garbanzo", "garbanzo ", ""},
		IsVeg:   true,
		IsVegan: true,
	})

	// Assert
	s.Require().NoError(err)
	s.Equal("Chickpea", ing.Name)
	s.Equal("chickpea", ing.Slug)
	s.Equal([]string{"garbanzo"}, ing.Aliases)
	s.True(ing.IsVerified)
	s.Equal([]string{"ingredient.created"}, s.h.events.Names())
	s.Equal(1, s.h.metrics.Count(s.h.metrics.Mutations, "ingredient:create"))
}

func (s *IngredientServiceTestSuite) TestCreateIngredient_NameOrAliasTakenIsConflict() {
	s.ingredient("Chickpea", "garbanzo")

	_, err := s.h.ingredients.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "CHICKPEA"})
	s.errs.IsConflict(err)
	_, err = s.h.ingredients.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "Garbanzo"})
	s.errs.IsConflict(err)
	_, err = s.h.ingredients.CreateIngredient(s.ctx, inbound.CreateIngredientCommand{Name: "***"})
	s.errs.IsValidation(err)
}

func (s *IngredientServiceTestSuite) TestUpdateIngredient_RenameRefreshesDishes() {
	// Arrange
	tomato := s.ingredient("Tomato")
	s.ingredient("Basil")
	dish := s.dish("Tomato Basil Salad", "tomato", "basil")
	stale, err := s.h.search.SearchDishes(s.ctx, inbound.SearchQuery{Kind: catalog.KindMeal, Ingredients: []string{"roma tomato"}})
	s.Require().NoError(err)
	s.Require().Empty(stale.Results)
	_, err = s.h.ingredients.GetIngredientBySlug(s.ctx, "tomato")
	s.Require().NoError(err)
	name := "Roma Tomato"

	// Act
	renamed, err := s.h.ingredients.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{ID: tomato.ID, Name: &name})

	// Assert
	s.Require().NoError(err)
	s.Equal("roma-tomato", renamed.Slug)
	s.False(s.h.cached(s.ctx, s.h.keys.IngredientSlug("tomato")))

	stored, err := s.h.dishRepo.FindByID(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.Equal([]string{"roma tomato", "basil"}, stored.IngredientNames)
	s.Equal([]string{"roma-tomato", "basil"}, stored.IngredientSlugs)

	lines, err := s.h.dishRepo.FindIngredientLines(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.Equal("Roma Tomato", lines[0].Name)
	s.Equal("100 g", lines[0].Quantity)

	fresh, err := s.h.search.SearchDishes(s.ctx, inbound.SearchQuery{Kind: catalog.KindMeal, Ingredients: []string{"roma tomato"}})
	s.Require().NoError(err)
	s.Equal([]string{"Tomato Basil Salad"}, testutils.Titles(fresh.Results))
	s.Equal(100, fresh.Results[0].MatchPercentage)

	s.Contains(s.h.events.Names(), "meal.updated")
}

func (s *IngredientServiceTestSuite) TestUpdateIngredient_TagChangeFlipsDishFlags() {
	// Arrange
	s.ingredient("Pesto Base")
	dish := s.dish("Pesto Pasta", "pesto base")
	s.Require().True(dish.Flags.NutFree)
	base, err := s.h.ingredients.GetIngredientBySlug(s.ctx, "pesto-base")
	s.Require().NoError(err)
	nut := true

	// Act
	_, err = s.h.ingredients.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{ID: base.ID, IsNut: &nut})

	// Assert
	s.Require().NoError(err)
	stored, err := s.h.dishRepo.FindByID(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.False(stored.Flags.NutFree)
	s.True(stored.Flags.IsVegan)

	got, err := s.h.ingredients.GetIngredient(s.ctx, base.ID)
	s.Require().NoError(err)
	s.True(got.IsNut)
}

func (s *IngredientServiceTestSuite) TestUpdateIngredient_AliasOnlyLeavesDishesAlone() {
	s.ingredient("Basil")
	s.dish("Basil Tea", "basil")
	basil, err := s.h.ingredients.GetIngredientBySlug(s.ctx, "basil")
	s.Require().NoError(err)
	s.h.events.Reset()
	aliases := []string{"sweet basil"}

	_, err = s.h.ingredients.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{ID: basil.ID, Aliases: &aliases})

	s.Require().NoError(err)
	s.Equal([]string{"ingredient.updated"}, s.h.events.Names())
}

func (s *IngredientServiceTestSuite) TestUpdateIngredient_Errors() {
	s.ingredient("Basil")
	mint := s.ingredient("Mint")
	name := "basil"

	_, err := s.h.ingredients.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{ID: mint.ID, Name: &name})
	s.errs.IsConflict(err)

	_, err = s.h.ingredients.UpdateIngredient(s.ctx, inbound.UpdateIngredientCommand{ID: uuid.New(), Name: &name})
	s.errs.IsNotFound(err)
}

func (s *IngredientServiceTestSuite) TestDeleteIngredient() {
	// Arrange
	basil := s.ingredient("Basil")
	mint := s.ingredient("Mint")
	s.dish("Basil Tea", "basil")
	_, err := s.h.ingredients.GetIngredient(s.ctx, mint.ID)
	s.Require().NoError(err)

	// Act
	referenced := s.h.ingredients.DeleteIngredient(s.ctx, basil.ID)
	unreferenced := s.h.ingredients.DeleteIngredient(s.ctx, mint.ID)

	// Assert
	s.errs.IsConflict(referenced)
	s.Require().NoError(unreferenced)
	_, err = s.h.ingredients.GetIngredient(s.ctx, mint.ID)
	s.errs.IsNotFound(err)
	s.errs.IsNotFound(s.h.ingredients.DeleteIngredient(s.ctx, mint.ID))
}

func (s *IngredientServiceTestSuite) TestSearchIngredients() {
	// Arrange
	for _, name := range []string{"Red Onion", "White Onion", "Spring Onion", "Garlic"} {
		s.ingredient(name)
	}

	// Act
	first, err := s.h.ingredients.SearchIngredients(s.ctx, inbound.IngredientSearchQuery{Search: "onion", Limit: 2})
	s.Require().NoError(err)
	second, err := s.h.ingredients.SearchIngredients(s.ctx, inbound.IngredientSearchQuery{Search: "onion", Page: 2, Limit: 2})
	s.Require().NoError(err)

	// Assert
	s.Equal(int64(3), first.Total)
	s.Len(first.Ingredients, 2)
	s.True(first.HasMore)
	s.Len(second.Ingredients, 1)
	s.False(second.HasMore)

	s.ingredient("Yellow Onion")
	refreshed, err := s.h.ingredients.SearchIngredients(s.ctx, inbound.IngredientSearchQuery{Search: "onion", Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(4), refreshed.Total)
}

func (s *IngredientServiceTestSuite) TestSearchIngredients_PageBeyondIntRange() {
	s.ingredient("Red Onion")

	_, err := s.h.ingredients.SearchIngredients(s.ctx, inbound.IngredientSearchQuery{Search: "onion", Page: math.MaxInt/20 + 2, Limit: 20})
	s.errs.IsValidation(err)

	last, err := s.h.ingredients.SearchIngredients(s.ctx, inbound.IngredientSearchQuery{Search: "onion", Page: math.MaxInt / 20, Limit: 20})
	s.Require().NoError(err)
	s.Empty(last.Ingredients)
	s.False(last.HasMore)
}

func (s *IngredientServiceTestSuite) TestAutocompleteDropsAfterIngredientChange() {
	s.ingredient("Basil")
	before, err := s.h.search.AutocompleteIngredients(s.ctx, "bas", 10)
	s.Require().NoError(err)
	s.Len(before, 1)

	s.ingredient("Basmati Rice")
	after, err := s.h.search.AutocompleteIngredients(s.ctx, "bas", 10)

	s.Require().NoError(err)
	s.Len(after, 2)
}

func (s *IngredientServiceTestSuite) TestCategories() {
	// Arrange
	empty, err := s.h.ingredients.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Empty(empty)

	// Act
	created, err := s.h.ingredients.CreateCategory(s.ctx, " Herbs ", "Leafy aromatics")
	s.Require().NoError(err)
	listed, err := s.h.ingredients.ListCategories(s.ctx)

	// Assert
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("Herbs", listed[0].Name)
	s.Equal(created.ID, listed[0].ID)

	_, err = s.h.ingredients.CreateCategory(s.ctx, "  ", "")
	s.errs.IsValidation(err)
	_, err = s.h.ingredients.CreateCategory(s.ctx, "Herbs", "")
	s.errs.IsConflict(err)
}

func TestIngredientServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IngredientServiceTestSuite))
}
