package cachepolicy

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
)

func TestSearchKey_IngredientOrderAndCaseDoNotMatter(t *testing.T) {
	kb := NewKeyBuilder()
	thirty := 30

	a := kb.Search(catalog.KindMeal, SearchKeyParts{
		UserID:         "u1",
		Ingredients:    []string{"Tomato", " basil", "tomato"},
		Category:       " Italian ",
		Difficulty:     catalog.DifficultyEasy,
		MaxCookingTime: &thirty,
		Page:           1,
		Limit:          20,
	})
	b := kb.Search(catalog.KindMeal, SearchKeyParts{
		UserID:         "u1",
		Ingredients:    []string{"BASIL", "tomato"},
		Category:       "italian",
		Difficulty:     catalog.DifficultyEasy,
		MaxCookingTime: &thirty,
		Page:           1,
		Limit:          20,
	})

	assert.Equal(t, a, b)
	assert.Equal(t, "meal-search:u1:basil,tomato:italian:EASY:30:1:20", a)
}

func TestSearchKey_DistinguishesEveryInput(t *testing.T) {
	kb := NewKeyBuilder()
	base := SearchKeyParts{UserID: "u1", Ingredients: []string{"tomato"}, Page: 1, Limit: 20}
	ten := 10

	variants := []SearchKeyParts{
		{UserID: "u2", Ingredients: []string{"tomato"}, Page: 1, Limit: 20},
		{UserID: "u1", Ingredients: []string{"basil"}, Page: 1, Limit: 20},
		{UserID: "u1", Ingredients: []string{"tomato"}, Category: "indian", Page: 1, Limit: 20},
		{UserID: "u1", Ingredients: []string{"tomato"}, Difficulty: catalog.DifficultyHard, Page: 1, Limit: 20},
		{UserID: "u1", Ingredients: []string{"tomato"}, MaxCookingTime: &ten, Page: 1, Limit: 20},
		{UserID: "u1", Ingredients: []string{"tomato"}, Page: 2, Limit: 20},
		{UserID: "u1", Ingredients: []string{"tomato"}, Page: 1, Limit: 10},
	}
	for _, v := range variants {
		assert.NotEqual(t, kb.Search(catalog.KindMeal, base), kb.Search(catalog.KindMeal, v))
	}
	assert.NotEqual(t, kb.Search(catalog.KindMeal, base), kb.Search(catalog.KindRecipe, base))
}

func TestKeyFamilies_CoverTheirKeys(t *testing.T) {
	kb := NewKeyBuilder()
	id := uuid.New()

	assert.True(t, strings.HasPrefix(kb.Search(catalog.KindRecipe, SearchKeyParts{Page: 1, Limit: 5}), kb.SearchFamily(catalog.KindRecipe)))
	assert.True(t, strings.HasPrefix(kb.Similar(catalog.KindMeal, id, 10), kb.SimilarFamily(catalog.KindMeal, id)))
	assert.True(t, strings.HasPrefix(kb.Trending(catalog.KindMeal, 10), kb.TrendingFamily(catalog.KindMeal)))
	assert.True(t, strings.HasPrefix(kb.Popular(catalog.KindMeal, 10), kb.PopularFamily(catalog.KindMeal)))
	assert.True(t, strings.HasPrefix(kb.Ingredient(id), kb.IngredientFamily()))
	assert.True(t, strings.HasPrefix(kb.IngredientSlug("tomato"), kb.IngredientFamily()))
	assert.True(t, strings.HasPrefix(kb.IngredientSearch(map[string]interface{}{"search": "tom"}), kb.IngredientFamily()))
	assert.True(t, strings.HasPrefix(kb.Autocomplete("Tom", 10), kb.AutocompleteFamily()))

	assert.False(t, strings.HasPrefix(kb.Search(catalog.KindMeal, SearchKeyParts{}), kb.SearchFamily(catalog.KindRecipe)))
}

func TestKeyLayout(t *testing.T) {
	kb := NewKeyBuilder()
	id := uuid.MustParse("6f1c1a52-6f2b-4d8e-9d55-1f7f3c1a0b01")

	assert.Equal(t, "similar-meals:"+id.String()+":10", kb.Similar(catalog.KindMeal, id, 10))
	assert.Equal(t, "user:profile:u1", kb.Profile("u1"))
	assert.Equal(t, "recipe:"+id.String(), kb.Dish(catalog.KindRecipe, id))
	assert.Equal(t, "recipe:slug:red-lentil-dal", kb.DishSlug(catalog.KindRecipe, "red-lentil-dal"))
	assert.Equal(t, "meal:ingredients:"+id.String(), kb.DishIngredients(catalog.KindMeal, id))
	assert.Equal(t, "trending-meals:10", kb.Trending(catalog.KindMeal, 10))
	assert.Equal(t, "popular-recipes:5", kb.Popular(catalog.KindRecipe, 5))
	assert.Equal(t, "autocomplete:tom:10", kb.Autocomplete(" Tom ", 10))
	assert.Equal(t, "categories:ingredient", kb.Categories(catalog.CategoryKindIngredient))
}

func TestIngredientSearchKey_StableHash(t *testing.T) {
	kb := NewKeyBuilder()

	a := kb.IngredientSearch(map[string]interface{}{"search": "tom", "page": 1, "limit": 20})
	b := kb.IngredientSearch(map[string]interface{}{"limit": 20, "page": 1, "search": "tom"})
	c := kb.IngredientSearch(map[string]interface{}{"search": "tom", "page": 2, "limit": 20})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, strings.TrimPrefix(a, "ingredient:search:"), 16)
	assert.Equal(t, "ingredient:search:none", kb.IngredientSearch(nil))
}
