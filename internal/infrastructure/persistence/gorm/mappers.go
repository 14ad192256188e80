// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/datatypes"
)

// IngredientToModel converts a domain ingredient to a GORM model
func IngredientToModel(ing *catalog.Ingredient) *IngredientModel {
	model := &IngredientModel{
		ID:         ing.ID,
		Name:       ing.Name,
		Slug:       ing.Slug,
		IsVeg:      ing.IsVeg,
		IsVegan:    ing.IsVegan,
		IsDairy:    ing.IsDairy,
		IsNut:      ing.IsNut,
		IsGluten:   ing.IsGluten,
		CategoryID: ing.CategoryID,
		IsVerified: ing.IsVerified,
		CreatedAt:  ing.CreatedAt,
		UpdatedAt:  ing.UpdatedAt,
	}
	model.Aliases = aliasModels(ing.ID, ing.Aliases)
	return model
}

func aliasModels(id uuid.UUID, aliases []string) []IngredientAliasModel {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]IngredientAliasModel, 0, len(aliases))
	for _, a := range aliases {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, IngredientAliasModel{IngredientID: id, Alias: a})
	}
	return out
}

// ModelToIngredient converts a GORM model to a domain ingredient
func ModelToIngredient(model *IngredientModel) *catalog.Ingredient {
	aliases := make([]string, len(model.Aliases))
	for i, a := range model.Aliases {
		aliases[i] = a.Alias
	}
	return &catalog.Ingredient{
		ID:         model.ID,
		Name:       model.Name,
		Slug:       model.Slug,
		Aliases:    aliases,
		IsVeg:      model.IsVeg,
		IsVegan:    model.IsVegan,
		IsDairy:    model.IsDairy,
		IsNut:      model.IsNut,
		IsGluten:   model.IsGluten,
		CategoryID: model.CategoryID,
		IsVerified: model.IsVerified,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// DishToModel converts a domain dish to a GORM model
func DishToModel(d *catalog.Dish) *DishModel {
	return &DishModel{
		ID:                 d.ID,
		Kind:               string(d.Kind),
		Title:              d.Title,
		Slug:               d.Slug,
		ShortDescription:   d.ShortDescription,
		Instructions:       d.Instructions,
		ImageURL:           d.ImageURL,
		IngredientIDs:      datatypes.NewJSONSlice(d.IngredientIDs),
		IngredientNames:    datatypes.NewJSONSlice(d.IngredientNames),
		IngredientSlugs:    datatypes.NewJSONSlice(d.IngredientSlugs),
		IsVeg:              d.Flags.IsVeg,
		IsVegan:            d.Flags.IsVegan,
		DairyFree:          d.Flags.DairyFree,
		NutFree:            d.Flags.NutFree,
		GlutenFree:         d.Flags.GlutenFree,
		DiabetesFriendly:   d.Flags.DiabetesFriendly,
		Difficulty:         string(d.Difficulty),
		CookingTimeMinutes: d.CookingTimeMinutes,
		CategoryID:         d.CategoryID,
		ViewCount:          d.ViewCount,
		ClickCount:         d.ClickCount,
		CookCount:          d.CookCount,
		BookmarkCount:      d.BookmarkCount,
		AvgRating:          d.AvgRating,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// ModelToDish converts a GORM model to a domain dish
func ModelToDish(model *DishModel) *catalog.Dish {
	return &catalog.Dish{
		ID:               model.ID,
		Kind:             catalog.DishKind(model.Kind),
		Title:            model.Title,
		Slug:             model.Slug,
		ShortDescription: model.ShortDescription,
		Instructions:     model.Instructions,
		ImageURL:         model.ImageURL,
		IngredientIDs:    nonNil(model.IngredientIDs),
		IngredientNames:  nonNil(model.IngredientNames),
		IngredientSlugs:  nonNil(model.IngredientSlugs),
		Flags: catalog.DietaryFlags{
			IsVeg:            model.IsVeg,
			IsVegan:          model.IsVegan,
			DairyFree:        model.DairyFree,
			NutFree:          model.NutFree,
			GlutenFree:       model.GlutenFree,
			DiabetesFriendly: model.DiabetesFriendly,
		},
		Difficulty:         catalog.Difficulty(model.Difficulty),
		CookingTimeMinutes: model.CookingTimeMinutes,
		CategoryID:         model.CategoryID,
		ViewCount:          model.ViewCount,
		ClickCount:         model.ClickCount,
		CookCount:          model.CookCount,
		BookmarkCount:      model.BookmarkCount,
		AvgRating:          model.AvgRating,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func nonNil(s datatypes.JSONSlice[string]) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// LinesToModels converts ingredient lines to join rows, preserving order
func LinesToModels(dish *catalog.Dish, lines []catalog.IngredientLine) []DishIngredientModel {
	out := make([]DishIngredientModel, len(lines))
	for i, l := range lines {
		out[i] = DishIngredientModel{
			DishID:       dish.ID,
			Position:     i,
			Kind:         string(dish.Kind),
			IngredientID: l.IngredientID,
			Name:         catalog.NormalizeName(l.Name),
			Slug:         l.Slug,
			Quantity:     l.Quantity,
			IsOptional:   l.IsOptional,
		}
	}
	return out
}

// CategoryToModel converts a domain category to a GORM model
func CategoryToModel(c *catalog.Category) *CategoryModel {
	return &CategoryModel{
		ID:          c.ID,
		Kind:        c.Kind,
		Name:        c.Name,
		Description: c.Description,
	}
}

// ModelToCategory converts a GORM model to a domain category
func ModelToCategory(model *CategoryModel) catalog.Category {
	return catalog.Category{
		ID:          model.ID,
		Kind:        model.Kind,
		Name:        model.Name,
		Description: model.Description,
	}
}

// ProfileToModel converts a domain profile to a GORM model
func ProfileToModel(p *user.DietProfile) *DietProfileModel {
	return &DietProfileModel{
		UserID:      p.UserID,
		VegType:     string(p.VegType),
		DairyFree:   p.DairyFree,
		NutFree:     p.NutFree,
		GlutenFree:  p.GlutenFree,
		HasDiabetes: p.HasDiabetes,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ModelToProfile converts a GORM model to a domain profile
func ModelToProfile(model *DietProfileModel) *user.DietProfile {
	return &user.DietProfile{
		UserID:      model.UserID,
		VegType:     user.VegType(model.VegType),
		DairyFree:   model.DairyFree,
		NutFree:     model.NutFree,
		GlutenFree:  model.GlutenFree,
		HasDiabetes: model.HasDiabetes,
		UpdatedAt:   model.UpdatedAt,
	}
}

// CookLogToModel converts a cook log to a GORM model
func CookLogToModel(l *outbound.CookLog) *CookLogModel {
	return &CookLogModel{
		ID:        l.ID,
		Kind:      string(l.Kind),
		DishID:    l.DishID,
		UserID:    l.UserID,
		Rating:    l.Rating,
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
	}
}
