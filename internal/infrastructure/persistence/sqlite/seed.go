package sqlite

import (
	"context"
	"fmt"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	gormModels "github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"gorm.io/gorm"
)

type seedIngredient struct {
	name    string
	aliases []string
	veg     bool
	vegan   bool
	dairy   bool
	nut     bool
	gluten  bool
}

var seedIngredients = []seedIngredient{
	{name: "Tomato", aliases: []string{"tomatoes"}, veg: true, vegan: true},
	{name: "Onion", aliases: []string{"onions"}, veg: true, vegan: true},
	{name: "Garlic", veg: true, vegan: true},
	{name: "Basil", veg: true, vegan: true},
	{name: "Olive Oil", veg: true, vegan: true},
	{name: "Pasta", aliases: []string{"spaghetti", "penne"}, veg: true, vegan: true, gluten: true},
	{name: "Mozzarella", veg: true, dairy: true},
	{name: "Parmesan", veg: true, dairy: true},
	{name: "Chickpeas", aliases: []string{"garbanzo beans"}, veg: true, vegan: true},
	{name: "Spinach", veg: true, vegan: true},
	{name: "Paneer", veg: true, dairy: true},
	{name: "Rice", veg: true, vegan: true},
	{name: "Chicken", aliases: []string{"chicken breast"}},
	{name: "Egg", aliases: []string{"eggs"}, veg: true},
	{name: "Cashew", aliases: []string{"cashews"}, veg: true, vegan: true, nut: true},
	{name: "Cream", veg: true, dairy: true},
	{name: "Lentils", aliases: []string{"dal"}, veg: true, vegan: true},
	{name: "Ginger", veg: true, vegan: true},
}

type seedLine struct {
	ingredient string
	quantity   string
	optional   bool
}

type seedDish struct {
	kind        catalog.DishKind
	title       string
	description string
	category    string
	difficulty  catalog.Difficulty
	minutes     int
	diabetes    bool
	lines       []seedLine
}

var seedDishes = []seedDish{
	{
		kind:        catalog.KindMeal,
		title:       "Tomato Basil Pasta",
		category:    "Italian",
		description: "Quick weeknight pasta with fresh tomato and basil",
		difficulty:  catalog.DifficultyEasy,
		minutes:     20,
		lines:       []seedLine{
			{"Pasta", "200 g", false}, {"Tomato", "3", false}, {"Basil", "a handful", false},
			{"Garlic", "2 cloves", false}, {"Olive Oil", "2 tbsp", false}, {"Parmesan", "30 g", true},
		},
	},
	{
		kind:        catalog.KindMeal,
		title:       "Chana Masala",
		category:    "Indian",
		description: "Chickpeas simmered in a spiced tomato and onion gravy",
		difficulty:  catalog.DifficultyMedium,
		minutes:     40,
		diabetes:    true,
		lines:       []seedLine{
			{"Chickpeas", "400 g", false}, {"Tomato", "2", false}, {"Onion", "1", false},
			{"Garlic", "3 cloves", false}, {"Ginger", "1 inch", false},
		},
	},
	{
		kind:        catalog.KindMeal,
		title:       "Palak Paneer",
		category:    "Indian",
		description: "Paneer cubes in a creamy spinach sauce",
		difficulty:  catalog.DifficultyMedium,
		minutes:     35,
		lines:       []seedLine{
			{"Spinach", "500 g", false}, {"Paneer", "200 g", false}, {"Onion", "1", false},
			{"Cream", "50 ml", true}, {"Garlic", "2 cloves", false},
		},
	},
	{
		kind:        catalog.KindMeal,
		title:       "Chicken Fried Rice",
		category:    "Asian",
		description: "Leftover rice tossed with chicken and egg",
		difficulty:  catalog.DifficultyEasy,
		minutes:     25,
		lines:       []seedLine{
			{"Rice", "2 cups", false}, {"Chicken", "200 g", false}, {"Egg", "2", false},
			{"Onion", "1", false}, {"Garlic", "2 cloves", false},
		},
	},
	{
		kind:        catalog.KindRecipe,
		title:       "Caprese Salad",
		category:    "Italian",
		description: "Tomato, mozzarella and basil with olive oil",
		difficulty:  catalog.DifficultyEasy,
		minutes:     10,
		lines:       []seedLine{
			{"Tomato", "2", false}, {"Mozzarella", "125 g", false}, {"Basil", "8 leaves", false},
			{"Olive Oil", "1 tbsp", false},
		},
	},
	{
		kind:        catalog.KindRecipe,
		title:       "Red Lentil Dal",
		category:    "Indian",
		description: "Everyday lentil dal with garlic and ginger",
		difficulty:  catalog.DifficultyEasy,
		minutes:     30,
		diabetes:    true,
		lines:       []seedLine{
			{"Lentils", "1 cup", false}, {"Tomato", "1", false}, {"Onion", "1", false},
			{"Garlic", "2 cloves", false}, {"Ginger", "1 inch", false},
		},
	},
	{
		kind:        catalog.KindRecipe,
		title:       "Cashew Korma",
		category:    "Indian",
		description: "Mild curry thickened with cashew paste and cream",
		difficulty:  catalog.DifficultyHard,
		minutes:     60,
		lines:       []seedLine{
			{"Cashew", "100 g", false}, {"Cream", "100 ml", false}, {"Onion", "2", false},
			{"Ginger", "1 inch", false}, {"Chicken", "400 g", true},
		},
	},
}

// SeedDatabase populates an empty database with a small demo catalog
func SeedDatabase(ctx context.Context, db *gorm.DB) error {
	var existing int64
	if err := db.WithContext(ctx).Model(&gormModels.IngredientModel{}).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if existing > 0 {
		return nil // Already seeded
	}

	ingredients := gormModels.NewIngredientRepository(db)
	categories := gormModels.NewCategoryRepository(db)
	dishes := gormModels.NewDishRepository(db)
	profiles := gormModels.NewProfileRepository(db)

	byName := make(map[string]catalog.Ingredient, len(seedIngredients))
	for _, s := range seedIngredients {
		ing, err := catalog.NewIngredient(s.name)
		if err != nil {
			return err
		}
		ing.Aliases = s.aliases
		ing.IsVeg, ing.IsVegan = s.veg, s.vegan
		ing.IsDairy, ing.IsNut, ing.IsGluten = s.dairy, s.nut, s.gluten
		if err := ingredients.Create(ctx, ing); err != nil {
			return fmt.Errorf("failed to seed ingredient %s: %w", s.name, err)
		}
		byName[s.name] = *ing
	}

	categoryIDs := make(map[string]*catalog.Category)
	for _, d := range seedDishes {
		kind := catalog.CategoryKindFor(d.kind)
		key := kind + ":" + d.category
		if _, ok := categoryIDs[key]; ok {
			continue
		}
		c := &catalog.Category{Kind: kind, Name: d.category}
		if err := categories.Create(ctx, c); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", d.category, err)
		}
		categoryIDs[key] = c
	}

	for _, d := range seedDishes {
		dish, err := catalog.NewDish(d.kind, d.title, d.difficulty)
		if err != nil {
			return err
		}
		dish.ShortDescription = d.description
		minutes := d.minutes
		dish.CookingTimeMinutes = &minutes
		dish.CategoryID = &categoryIDs[catalog.CategoryKindFor(d.kind)+":"+d.category].ID

		ings := make([]catalog.Ingredient, 0, len(d.lines))
		lines := make([]catalog.IngredientLine, 0, len(d.lines))
		for _, l := range d.lines {
			ing := byName[l.ingredient]
			ings = append(ings, ing)
			lines = append(lines, catalog.LineFor(ing, l.quantity, l.optional))
		}
		dish.SetIngredients(ings, d.diabetes)

		if err := dishes.Create(ctx, dish, lines); err != nil {
			return fmt.Errorf("failed to seed %s %s: %w", d.kind, d.title, err)
		}
	}

	return profiles.Upsert(ctx, &user.DietProfile{
		UserID:  "demo-vegetarian",
		VegType: user.VegTypeVegetarian,
		NutFree: true,
	})
}
