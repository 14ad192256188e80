package gorm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/gorm"
)

// IngredientRepository implements the ingredient repository interface using GORM
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

var _ outbound.IngredientRepository = (*IngredientRepository)(nil)

// Create creates a new ingredient with its aliases
func (r *IngredientRepository) Create(ctx context.Context, ing *catalog.Ingredient) error {
	return translateError(r.db.WithContext(ctx).Create(IngredientToModel(ing)).Error)
}

// Update saves the ingredient and replaces its aliases
func (r *IngredientRepository) Update(ctx context.Context, ing *catalog.Ingredient) error {
	model := IngredientToModel(ing)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&IngredientModel{}).
			Where("id = ?", ing.ID).
			Select("*").Omit("id", "created_at", "Aliases").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		if err := tx.Where("ingredient_id = ?", ing.ID).Delete(&IngredientAliasModel{}).Error; err != nil {
			return err
		}
		if len(model.Aliases) == 0 {
			return nil
		}
		return tx.Create(&model.Aliases).Error
	})
	return translateError(err)
}

// Delete deletes an ingredient by ID
func (r *IngredientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&IngredientAliasModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&IngredientModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		return nil
	})
	return translateError(err)
}

func (r *IngredientRepository) first(ctx context.Context, query string, args ...interface{}) (*catalog.Ingredient, error) {
	var model IngredientModel
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Where(query, args...).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ModelToIngredient(&model), nil
}

// FindByID finds an ingredient by ID
func (r *IngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Ingredient, error) {
	return r.first(ctx, "id = ?", id)
}

// FindBySlug finds an ingredient by slug
func (r *IngredientRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Ingredient, error) {
	return r.first(ctx, "slug = ?", slug)
}

// FindByIDs returns ingredients with the given ids, in the order requested
func (r *IngredientRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Ingredient, error) {
	if len(ids) == 0 {
		return []catalog.Ingredient{}, nil
	}
	var models []IngredientModel
	if err := r.db.WithContext(ctx).Preload("Aliases").Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uuid.UUID]*catalog.Ingredient, len(models))
	for i := range models {
		byID[models[i].ID] = ModelToIngredient(&models[i])
	}
	out := make([]catalog.Ingredient, 0, len(ids))
	for _, id := range ids {
		if ing, ok := byID[id]; ok {
			out = append(out, *ing)
		}
	}
	return out, nil
}

// FindByNameOrAlias matches the name case-insensitively or an alias exactly
func (r *IngredientRepository) FindByNameOrAlias(ctx context.Context, name string) (*catalog.Ingredient, error) {
	name = catalog.NormalizeName(name)
	aliased := r.db.Model(&IngredientAliasModel{}).Select("ingredient_id").Where("alias = ?", name)
	return r.first(ctx, "LOWER(name) = ? OR id IN (?)", name, aliased)
}

var ingredientLikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + ingredientLikeEscaper.Replace(strings.ToLower(s)) + "%"
}

// Search lists ingredients matching filter, ordered by name, with the total count
func (r *IngredientRepository) Search(ctx context.Context, filter outbound.IngredientFilter, limit, offset int) ([]catalog.Ingredient, int64, error) {
	scope := r.filterScope(filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&IngredientModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	page := r.db.WithContext(ctx).Scopes(scope).Preload("Aliases").Order("name ASC")
	if limit > 0 {
		page = page.Limit(limit)
	}
	if offset > 0 {
		page = page.Offset(offset)
	}
	var models []IngredientModel
	if err := page.Find(&models).Error; err != nil {
		return nil, 0, translateError(err)
	}

	out := make([]catalog.Ingredient, len(models))
	for i := range models {
		out[i] = *ModelToIngredient(&models[i])
	}
	return out, total, nil
}

func (r *IngredientRepository) filterScope(filter outbound.IngredientFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if s := strings.TrimSpace(filter.Search); s != "" {
			aliased := r.db.Model(&IngredientAliasModel{}).Select("ingredient_id").
				Where(`alias LIKE ? ESCAPE '\'`, containsPattern(s))
			tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\' OR id IN (?)`, containsPattern(s), aliased)
		}
		if filter.CategoryID != nil {
			tx = tx.Where("category_id = ?", *filter.CategoryID)
		}
		if filter.IsVeg != nil {
			tx = tx.Where("is_veg = ?", *filter.IsVeg)
		}
		if filter.IsVegan != nil {
			tx = tx.Where("is_vegan = ?", *filter.IsVegan)
		}
		if filter.Verified != nil {
			tx = tx.Where("is_verified = ?", *filter.Verified)
		}
		return tx
	}
}

// Autocomplete matches a name substring or an exact alias, verified first
func (r *IngredientRepository) Autocomplete(ctx context.Context, q string, limit int) ([]catalog.Ingredient, error) {
	q = catalog.NormalizeName(q)
	if q == "" {
		return []catalog.Ingredient{}, nil
	}
	aliased := r.db.Model(&IngredientAliasModel{}).Select("ingredient_id").Where("alias = ?", q)

	var models []IngredientModel
	tx := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR id IN (?)`, containsPattern(q), aliased).
		Order("is_verified DESC").
		Order("name ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]catalog.Ingredient, len(models))
	for i := range models {
		out[i] = *ModelToIngredient(&models[i])
	}
	return out, nil
}
