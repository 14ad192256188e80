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

type EngagementServiceTestSuite struct {
	suite.Suite
	ctx  context.Context
	h    *harness
	errs *testutils.ErrorAssertions

	soup, salad *catalog.Dish
}

func (s *EngagementServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.h = newHarness(s.T())
	s.errs = testutils.NewErrorAssertions(s.T())

	tomato := testutils.NewIngredientBuilder().Named("Tomato").Create(s.T(), s.h.ingredientRepo)
	s.soup = testutils.NewDishBuilder().Titled("Tomato Soup").With(tomato).Create(s.T(), s.h.dishRepo)
	s.salad = testutils.NewDishBuilder().Titled("Tomato Salad").With(tomato).Create(s.T(), s.h.dishRepo)
}

func (s *EngagementServiceTestSuite) TestBookmarkLifecycle() {
	// Arrange
	_, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, s.soup.ID, "")
	s.Require().NoError(err)

	// Act
	s.Require().NoError(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, s.soup.ID, "u1"))
	s.Require().NoError(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, s.salad.ID, "u1"))
	duplicate := s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, s.soup.ID, "u1")

	// Assert
	s.errs.IsConflict(duplicate)
	s.False(s.h.cached(s.ctx, s.h.keys.Dish(catalog.KindMeal, s.soup.ID)))

	detail, err := s.h.dishes.GetDish(s.ctx, catalog.KindMeal, s.soup.ID, "")
	s.Require().NoError(err)
	s.Equal(int64(1), detail.BookmarkCount)

	page, err := s.h.engagement.ListBookmarks(s.ctx, catalog.KindMeal, "u1", 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.ElementsMatch([]string{"Tomato Soup", "Tomato Salad"}, testutils.SummaryTitles(page.Dishes))

	s.Require().NoError(s.h.engagement.Unbookmark(s.ctx, catalog.KindMeal, s.soup.ID, "u1"))
	s.errs.IsNotFound(s.h.engagement.Unbookmark(s.ctx, catalog.KindMeal, s.soup.ID, "u1"))

	page, err = s.h.engagement.ListBookmarks(s.ctx, catalog.KindMeal, "u1", 10, 0)
	s.Require().NoError(err)
	s.Equal([]string{"Tomato Salad"}, testutils.SummaryTitles(page.Dishes))
}

func (s *EngagementServiceTestSuite) TestBookmark_RefreshesSlugDetail() {
	// Arrange
	before, err := s.h.dishes.GetDishBySlug(s.ctx, catalog.KindMeal, s.soup.Slug, "")
	s.Require().NoError(err)
	s.Zero(before.BookmarkCount)

	// Act
	s.Require().NoError(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, s.soup.ID, "u1"))

	// Assert
	s.False(s.h.cached(s.ctx, s.h.keys.DishSlug(catalog.KindMeal, s.soup.Slug)))
	after, err := s.h.dishes.GetDishBySlug(s.ctx, catalog.KindMeal, s.soup.Slug, "")
	s.Require().NoError(err)
	s.Equal(int64(1), after.BookmarkCount)
}

func (s *EngagementServiceTestSuite) TestBookmark_Validation() {
	s.errs.IsValidation(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, s.soup.ID, " "))
	s.errs.IsValidation(s.h.engagement.Bookmark(s.ctx, "dessert", s.soup.ID, "u1"))
	s.errs.IsNotFound(s.h.engagement.Bookmark(s.ctx, catalog.KindMeal, uuid.New(), "u1"))

	_, err := s.h.engagement.ListBookmarks(s.ctx, catalog.KindMeal, "u1", 101, 0)
	s.errs.IsValidation(err)
	_, err = s.h.engagement.ListBookmarks(s.ctx, catalog.KindMeal, "u1", 10, -1)
	s.errs.IsValidation(err)
	_, err = s.h.engagement.ListBookmarks(s.ctx, catalog.KindMeal, "u1", 10, math.MaxInt-5)
	s.errs.IsValidation(err)
}

func (s *EngagementServiceTestSuite) TestRateDish() {
	// Arrange
	four, two := 4, 2

	// Act
	avg1, err1 := s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: s.soup.ID, UserID: "u1", Rating: &four})
	avg2, err2 := s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: s.soup.ID, UserID: "u2", Rating: &two})
	avg3, err3 := s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: s.soup.ID, UserID: "u3"})

	// Assert
	s.Require().NoError(err1)
	s.Require().NoError(err2)
	s.Require().NoError(err3)
	s.InDelta(4.0, avg1, 0.001)
	s.InDelta(3.0, avg2, 0.001)
	s.InDelta(3.0, avg3, 0.001)
	s.Equal([]string{"meal.rated", "meal.rated", "meal.cooked"}, s.h.events.Names())

	stored, err := s.h.dishRepo.FindByID(s.ctx, catalog.KindMeal, s.soup.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), stored.CookCount)
}

func (s *EngagementServiceTestSuite) TestRateDish_Rejections() {
	six := 6
	_, err := s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: s.soup.ID, UserID: "u1", Rating: &six})
	s.errs.IsValidation(err)

	_, err = s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: s.soup.ID})
	s.errs.IsValidation(err)

	_, err = s.h.engagement.RateDish(s.ctx, inbound.RateDishCommand{Kind: catalog.KindMeal, DishID: uuid.New(), UserID: "u1"})
	s.errs.IsNotFound(err)
	s.Empty(s.h.events.Events())
}

func TestEngagementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceTestSuite))
}
