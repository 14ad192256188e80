package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/test/testutils"
	"github.com/stretchr/testify/suite"
)

// DishServiceTestSuite tests dish writes, reads and the cache entries they
// touch
type DishServiceTestSuite struct {
	suite.Suite
	ctx  context.Context
	h    *harness
	errs *testutils.ErrorAssertions

	tomato, basil, cheese *catalog.Ingredient
}

func (s *DishServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.h = newHarness(s.T())
	s.errs = testutils.NewErrorAssertions(s.T())

	s.tomato = testutils.NewIngredientBuilder().Named("Tomato").WithAliases("tomatoes").Create(s.T(), s.h.ingredientRepo)
	s.basil = testutils.NewIngredientBuilder().Named("Basil").Create(s.T(), s.h.ingredientRepo)
	s.cheese = testutils.NewIngredientBuilder().Named("Mozzarella").Dairy().Create(s.T(), s.h.ingredientRepo)
}

func (s *DishServiceTestSuite) create(title string, refs ...string) *catalog.Dish {
	inputs := make([]inbound.IngredientInput, 0, len(refs))
	for _, r := range refs {
		inputs = append(inputs, inbound.IngredientInput{Ref: r, Quantity: "1 cup"})
	}
	d, err := s.h.dishes.CreateDish(s.ctx, inbound.CreateDishCommand{
		Kind:        catalog.KindMeal,
		Title:       title,
		Ingredients: inputs,
	})
	s.Require().NoError(err)
	return d
}

func (s *DishServiceTestSuite) TestCreateDish_ResolvesIngredientReferences() {
	// Act
	dish, err := s.h.dishes.CreateDish(s.ctx, inbound.CreateDishCommand{
		Kind:       catalog.KindMeal,
		Title:      "  Caprese Salad ",
		Difficulty: "easy",
		Ingredients: []inbound.IngredientInput{
			{Ref: s.tomato.ID.String(), Quantity: "2"},
			{Ref: "BASIL"},
			{Ref: "tomatoes"},
			{Ref: "mozzarella", IsOptional: true},
		},
	})

	// Assert
	s.Require().NoError(err)
	s.Equal("Caprese Salad", dish.Title)
	s.Equal("caprese-salad", dish.Slug)
	s.Equal(catalog.DifficultyEasy, dish.Difficulty)
	s.Equal([]string{"tomato", "basil", "mozzarella"}, dish.IngredientNames)
	s.True(dish.Flags.IsVeg)
	s.False(dish.Flags.IsVegan)
	s.False(dish.Flags.DairyFree)
	s.True(dish.Flags.GlutenFree)

	lines, err := s.h.dishRepo.FindIngredientLines(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.Require().Len(lines, 3)
	s.Equal("2", lines[0].Quantity)
	s.True(lines[2].IsOptional)

	s.Equal([]string{"meal.created"}, s.h.events.Names())
	s.Equal(1, s.h.metrics.Count(s.h.metrics.Mutations, "meal:create"))
}

func (s *DishServiceTestSuite) TestCreateDish_UnknownNameBecomesProvisionalIngredient() {
	// Act
	dish := s.create("Saffron Rice", "Saffron threads", "tomato")

	// Assert
	ing, err := s.h.ingredientRepo.FindBySlug(s.ctx, "saffron-threads")
	s.Require().NoError(err)
	s.Equal("Saffron Threads", ing.Name)
	s.False(ing.IsVerified)
	s.False(ing.IsVeg)
	s.Contains(dish.IngredientIDs, ing.ID.String())
	// unknown tags make the dish fail every dietary flag
	s.False(dish.Flags.IsVeg)
	s.False(dish.Flags.IsVegan)
	s.Equal([]string{"ingredient.created", "meal.created"}, s.h.events.Names())
}

func (s *DishServiceTestSuite) TestCreateDish_Rejections() {
	s.create("Tomato Soup", "tomato")

	_, err := s.h.dishes.CreateDish(s.ctx, inbound.CreateDishCommand{Kind: catalog.KindMeal, Title: "Tomato Soup!"})
	s.errs.IsConflict(err)

	invalid := map[string]inbound.CreateDishCommand{
		"missing title":      {Kind: catalog.KindMeal},
		"unknown kind":       {Kind: "dessert", Title: "Pie"},
		"unknown difficulty": {Kind: catalog.KindMeal, Title: "Pie", Difficulty: "extreme"},
		"bad image url":      {Kind: catalog.KindMeal, Title: "Pie", ImageURL: "not a url"},
		"unknown ingredient": {Kind: catalog.KindMeal, Title: "Pie", Ingredients: []inbound.IngredientInput{{Ref: uuid.NewString()}}},
		"punctuation only":   {Kind: catalog.KindMeal, Title: "Pie", Ingredients: []inbound.IngredientInput{{Ref: "!!!"}}},
	}
	for name, cmd := range invalid {
		s.Run(name, func() {
			_, err := s.h.dishes.CreateDish(s.ctx, cmd)
			s.errs.IsValidation(err)
		})
	}
}

func (s *DishServiceTestSuite) TestUpdateDish_ReplacesIngredientsAndRecomputesFlags() {
	// Arrange
	dish := s.create("Caprese", "tomato", "basil", "mozzarella")
	diabetes := true
	_, err := s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{Kind: catalog.KindMeal, ID: dish.ID, DiabetesFriendly: &diabetes})
	s.Require().NoError(err)
	ings := []inbound.IngredientInput{{Ref: "tomato"}, {Ref: "basil"}}

	// Act
	updated, err := s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{
		Kind:        catalog.KindMeal,
		ID:          dish.ID,
		Ingredients: &ings,
	})

	// Assert
	s.Require().NoError(err)
	s.Equal([]string{"tomato", "basil"}, updated.IngredientNames)
	s.True(updated.Flags.DairyFree)
	s.True(updated.Flags.IsVegan)
	s.True(updated.Flags.DiabetesFriendly)

	lines, err := s.h.dishRepo.FindIngredientLines(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.Len(lines, 2)
}

func (s *DishServiceTestSuite) TestUpdateDish_RetitleDropsOldSlugEntry() {
	// Arrange
	dish := s.create("Tomato Salad", "tomato")
	_, err := s.h.dishes.GetDishBySlug(s.ctx, catalog.KindMeal, "tomato-salad", "")
	s.Require().NoError(err)
	s.Require().True(s.h.cached(s.ctx, s.h.keys.DishSlug(catalog.KindMeal, "tomato-salad")))
	title := "Summer Tomato Salad"

	// Act
	updated, err := s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{Kind: catalog.KindMeal, ID: dish.ID, Title: &title})

	// Assert
	s.Require().NoError(err)
	s.Equal("summer-tomato-salad", updated.Slug)
	s.False(s.h.cached(s.ctx, s.h.keys.DishSlug(catalog.KindMeal, "tomato-salad")))
	_, err = s.h.dishes.GetDishBySlug(s.ctx, catalog.KindMeal, "tomato-salad", "")
	s.errs.IsNotFound(err)
	got, err := s.h.dishes.GetDishBySlug(s.ctx, catalog.KindMeal, "Summer-Tomato-Salad", "")
	s.Require().NoError(err)
	s.Equal(dish.ID, got.ID)
}

func (s *DishServiceTestSuite) TestUpdateDish_SearchSeesNewIngredients() {
	// Arrange
	dish := s.create("Green Plate", "basil")
	before, err := s.h.search.SearchDishes(s.ctx, inbound.SearchQuery{Kind: catalog.KindMeal, Ingredients: []string{"tomato"}})
	s.Require().NoError(err)
	s.Empty(before.Results)
	ings := []inbound.IngredientInput{{Ref: "basil"}, {Ref: "tomato"}}

	// Act
	_, err = s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{Kind: catalog.KindMeal, ID: dish.ID, Ingredients: &ings})
	s.Require().NoError(err)
	after, err := s.h.search.SearchDishes(s.ctx, inbound.SearchQuery{Kind: catalog.KindMeal, Ingredients: []string{"tomato"}})

	// Assert
	s.Require().NoError(err)
	s.Equal([]string{"Green Plate"}, testutils.Titles(after.Results))
	s.Equal(1, s.h.metrics.Count(s.h.metrics.Invalidations, "meal.updated:ok"))
}

func (s *DishServiceTestSuite) TestUpdateDish_Errors() {
	title := "Anything"
	_, err := s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{Kind: catalog.KindMeal, ID: uuid.New(), Title: &title})
	s.errs.IsNotFound(err)

	dish := s.create("Basil Oil", "basil")
	s.create("Tomato Oil", "tomato")
	taken := "Tomato Oil"
	_, err = s.h.dishes.UpdateDish(s.ctx, inbound.UpdateDishCommand{Kind: catalog.KindMeal, ID: dish.ID, Title: &taken})
	s.errs.IsConflict(err)
}

func (s *DishServiceTestSuite) TestGetDish_CountsViewsOnStoreReadsOnly() {
	// Arrange
	dish := s.create("Bruschetta", "tomato", "basil")

	// Act
	first, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, dish.ID, "")
	s.Require().NoError(err)
	second, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, dish.ID, "")
	s.Require().NoError(err)

	// Assert
	s.Equal(int64(1), first.ViewCount)
	s.Equal(int64(1), second.ViewCount)
	stored, err := s.h.dishRepo.FindByID(s.ctx, catalog.KindMeal, dish.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.ViewCount)
	s.Len(second.Ingredients, 2)
	s.True(second.IsCompatible)
}

func (s *DishServiceTestSuite) TestGetDish_ExplainsIncompatibility() {
	// Arrange
	dish := s.create("Caprese", "tomato", "basil", "mozzarella")
	s.Require().NoError(s.h.profiles.UpsertProfile(s.ctx, testutils.NewTestProfile("vegan-user", user.VegTypeVegan, "dairy")))

	// Act
	detail, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, dish.ID, "vegan-user")

	// Assert
	s.Require().NoError(err)
	s.False(detail.IsCompatible)
	s.ElementsMatch([]string{"Contains animal products", "Contains dairy"}, detail.Reasons)

	_, err = s.h.dishes.GetDish(s.ctx, catalog.KindRecipe, dish.ID, "")
	s.errs.IsNotFound(err)
}

func (s *DishServiceTestSuite) TestDeleteDish() {
	// Arrange
	dish := s.create("Tomato Toast", "tomato")
	_, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, dish.ID, "")
	s.Require().NoError(err)

	// Act
	err = s.h.dishes.DeleteDish(s.ctx, catalog.KindMeal, dish.ID)

	// Assert
	s.Require().NoError(err)
	s.False(s.h.cached(s.ctx, s.h.keys.Dish(catalog.KindMeal, dish.ID)))
	_, err = s.h.dishes.GetDish(s.ctx, catalog.KindMeal, dish.ID, "")
	s.errs.IsNotFound(err)
	s.errs.IsNotFound(s.h.dishes.DeleteDish(s.ctx, catalog.KindMeal, dish.ID))
	s.Contains(s.h.events.Names(), "meal.deleted")
}

func (s *DishServiceTestSuite) TestListDishes() {
	// Arrange
	s.create("Caprese", "tomato", "mozzarella")
	s.create("Tomato Soup", "tomato")
	s.create("Basil Tea", "basil")
	veg := true

	// Act
	page, err := s.h.dishes.ListDishes(s.ctx, inbound.ListDishesQuery{Kind: catalog.KindMeal, Limit: 2})
	s.Require().NoError(err)
	vegPage, err := s.h.dishes.ListDishes(s.ctx, inbound.ListDishesQuery{Kind: catalog.KindMeal, IsVeg: &veg, Offset: 1})
	s.Require().NoError(err)

	// Assert
	s.Equal(int64(3), page.Total)
	s.Len(page.Dishes, 2)
	s.True(page.HasMore)
	s.Len(vegPage.Dishes, 2)
	s.False(vegPage.HasMore)

	_, err = s.h.dishes.ListDishes(s.ctx, inbound.ListDishesQuery{Kind: catalog.KindMeal, Limit: 101})
	s.errs.IsValidation(err)
}

func (s *DishServiceTestSuite) TestPopularAndClicks() {
	// Arrange
	soup := s.create("Tomato Soup", "tomato")
	tea := s.create("Basil Tea", "basil")
	five, three := 5, 3
	_, err := s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: tea.ID, UserID: "u1", Rating: &five})
	s.Require().NoError(err)
	_, err = s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: tea.ID, UserID: "u2", Rating: &three})
	s.Require().NoError(err)
	s.Require().NoError(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, soup.ID, "u1"))

	// Act
	popular, err := s.h.dishes.Popular(s.ctx, catalog.KindMeal, 0)

	// Assert
	s.Require().NoError(err)
	s.Equal([]string{"Basil Tea", "Tomato Soup"}, testutils.SummaryTitles(popular))
	s.Equal(int64(2), popular[0].CookCount)
	s.InDelta(4.0, popular[0].AvgRating, 0.001)

	s.Require().NoError(s.h.dishes.RecordClick(s.ctx, catalog.KindMeal, soup.ID))
	trending, err := s.h.search.Trending(s.ctx, catalog.KindMeal, 5)
	s.Require().NoError(err)
	s.Equal([]string{"Tomato Soup"}, testutils.SummaryTitles(trending))
	s.errs.IsNotFound(s.h.dishes.RecordClick(s.ctx, catalog.KindMeal, uuid.New()))

	_, err = s.h.dishes.Popular(s.ctx, catalog.KindMeal, 51)
	s.errs.IsValidation(err)
}

func TestDishServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DishServiceTestSuite))
}
