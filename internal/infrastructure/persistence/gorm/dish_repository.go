package gorm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/domain/query"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DishRepository implements the dish repository interface using GORM
type DishRepository struct {
	db *gorm.DB
}

// NewDishRepository creates a new dish repository
func NewDishRepository(db *gorm.DB) *DishRepository {
	return &DishRepository{db: db}
}

var _ outbound.DishRepository = (*DishRepository)(nil)

// Create inserts the dish and its ingredient lines in one transaction
func (r *DishRepository) Create(ctx context.Context, dish *catalog.Dish, lines []catalog.IngredientLine) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(DishToModel(dish)).Error; err != nil {
			return err
		}
		return insertLines(tx, dish, lines)
	})
	return translateError(err)
}

// Update saves the dish. When lines is non-nil the ingredient lines are replaced.
func (r *DishRepository) Update(ctx context.Context, dish *catalog.Dish, lines []catalog.IngredientLine) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := DishToModel(dish)
		result := tx.Model(&DishModel{}).
			Where("id = ? AND kind = ?", dish.ID, string(dish.Kind)).
			Select("*").Omit("id", "kind", "created_at", "view_count", "click_count", "cook_count", "bookmark_count", "avg_rating").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		if lines == nil {
			return nil
		}
		if err := tx.Where("dish_id = ?", dish.ID).Delete(&DishIngredientModel{}).Error; err != nil {
			return err
		}
		return insertLines(tx, dish, lines)
	})
	return translateError(err)
}

func insertLines(tx *gorm.DB, dish *catalog.Dish, lines []catalog.IngredientLine) error {
	if len(lines) == 0 {
		return nil
	}
	rows := LinesToModels(dish, lines)
	return tx.Create(&rows).Error
}

// Delete removes a dish with its lines, bookmarks and cook logs
func (r *DishRepository) Delete(ctx context.Context, kind catalog.DishKind, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND kind = ?", id, string(kind)).Delete(&DishModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		if err := tx.Where("dish_id = ?", id).Delete(&DishIngredientModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("kind = ? AND dish_id = ?", string(kind), id).Delete(&BookmarkModel{}).Error; err != nil {
			return err
		}
		return tx.Where("kind = ? AND dish_id = ?", string(kind), id).Delete(&CookLogModel{}).Error
	})
	return translateError(err)
}

// FindByID finds a dish by ID
func (r *DishRepository) FindByID(ctx context.Context, kind catalog.DishKind, id uuid.UUID) (*catalog.Dish, error) {
	var model DishModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, string(kind)).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ModelToDish(&model), nil
}

// FindBySlug finds a dish by slug
func (r *DishRepository) FindBySlug(ctx context.Context, kind catalog.DishKind, slug string) (*catalog.Dish, error) {
	var model DishModel
	err := r.db.WithContext(ctx).
		Where("slug = ? AND kind = ?", slug, string(kind)).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ModelToDish(&model), nil
}

// FindByIDs returns the dishes with the given ids in the order requested.
// Unknown ids are skipped.
func (r *DishRepository) FindByIDs(ctx context.Context, kind catalog.DishKind, ids []uuid.UUID) ([]*catalog.Dish, error) {
	if len(ids) == 0 {
		return []*catalog.Dish{}, nil
	}
	var models []DishModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND id IN ?", string(kind), ids).
		Find(&models).Error
	if err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uuid.UUID]*catalog.Dish, len(models))
	for i := range models {
		byID[models[i].ID] = ModelToDish(&models[i])
	}
	out := make([]*catalog.Dish, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindIngredientLines returns the ingredient lines of a dish joined with the
// current dietary tags of each ingredient
func (r *DishRepository) FindIngredientLines(ctx context.Context, kind catalog.DishKind, id uuid.UUID) ([]catalog.IngredientLine, error) {
	type lineRow struct {
		DishIngredientModel
		DisplayName string
		IsVeg       bool
		IsVegan     bool
		IsDairy     bool
		IsNut       bool
		IsGluten    bool
	}

	var rows []lineRow
	err := r.db.WithContext(ctx).
		Table("dish_ingredients").
		Select(`dish_ingredients.*, ingredients.name AS display_name,
			ingredients.is_veg, ingredients.is_vegan, ingredients.is_dairy,
			ingredients.is_nut, ingredients.is_gluten`).
		Joins("LEFT JOIN ingredients ON ingredients.id = dish_ingredients.ingredient_id").
		Where("dish_ingredients.dish_id = ? AND dish_ingredients.kind = ?", id, string(kind)).
		Order("dish_ingredients.position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	lines := make([]catalog.IngredientLine, len(rows))
	for i, row := range rows {
		name := row.DisplayName
		if name == "" {
			name = row.Name
		}
		lines[i] = catalog.IngredientLine{
			IngredientID: row.IngredientID,
			Name:         name,
			Slug:         row.Slug,
			Quantity:     row.Quantity,
			IsOptional:   row.IsOptional,
			IsVeg:        row.IsVeg,
			IsVegan:      row.IsVegan,
			IsDairy:      row.IsDairy,
			IsNut:        row.IsNut,
			IsGluten:     row.IsGluten,
		}
	}
	return lines, nil
}

func (r *DishRepository) filtered(ctx context.Context, kind catalog.DishKind, pred query.Predicate) (*gorm.DB, error) {
	expr, err := compileDishFilter(pred)
	if err != nil {
		return nil, err
	}
	return r.db.WithContext(ctx).
		Model(&DishModel{}).
		Where("dishes.kind = ?", string(kind)).
		Where(expr), nil
}

func orderBy(tx *gorm.DB, orders []outbound.Order) (*gorm.DB, error) {
	for _, o := range orders {
		col, err := column(o.Field)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: col, Desc: o.Desc})
	}
	return tx, nil
}

// FindMany returns dishes satisfying pred
func (r *DishRepository) FindMany(ctx context.Context, kind catalog.DishKind, pred query.Predicate, opts outbound.FindOptions) ([]*catalog.Dish, error) {
	tx, err := r.filtered(ctx, kind, pred)
	if err != nil {
		return nil, err
	}
	if tx, err = orderBy(tx, opts.OrderBy); err != nil {
		return nil, err
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}

	var models []DishModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	dishes := make([]*catalog.Dish, len(models))
	for i := range models {
		dishes[i] = ModelToDish(&models[i])
	}
	return dishes, nil
}

// Count counts dishes satisfying pred
func (r *DishRepository) Count(ctx context.Context, kind catalog.DishKind, pred query.Predicate) (int64, error) {
	tx, err := r.filtered(ctx, kind, pred)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// RankByOverlap orders the filtered dishes by how many distinct names they
// share with names, then by id, and returns one page
func (r *DishRepository) RankByOverlap(ctx context.Context, kind catalog.DishKind, pred query.Predicate, names []string, limit, offset int) ([]outbound.DishMatch, error) {
	tx, err := r.filtered(ctx, kind, pred)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(names))
	for _, n := range names {
		normalized = append(normalized, catalog.NormalizeName(n))
	}
	if len(normalized) == 0 {
		// keeps "IN ?" well formed; matches nothing
		normalized = append(normalized, "")
	}

	matches := r.db.
		Model(&DishIngredientModel{}).
		Select("dish_id, COUNT(DISTINCT name) AS matched").
		Where("kind = ? AND name IN ?", string(kind), normalized).
		Group("dish_id")

	type rankedRow struct {
		DishModel
		MatchedCount int
	}

	tx = tx.
		Select("dishes.*, COALESCE(m.matched, 0) AS matched_count").
		Joins("LEFT JOIN (?) AS m ON m.dish_id = dishes.id", matches).
		Order("matched_count DESC").
		Order("dishes.id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}

	var rows []rankedRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	out := make([]outbound.DishMatch, len(rows))
	for i := range rows {
		out[i] = outbound.DishMatch{
			Dish:         ModelToDish(&rows[i].DishModel),
			MatchedCount: rows[i].MatchedCount,
		}
	}
	return out, nil
}

// FindSimilarCandidates returns dishes other than excludeID sharing at least
// one ingredient id with ingredientIDs
func (r *DishRepository) FindSimilarCandidates(ctx context.Context, kind catalog.DishKind, excludeID uuid.UUID, ingredientIDs []string) ([]*catalog.Dish, error) {
	if len(ingredientIDs) == 0 {
		return []*catalog.Dish{}, nil
	}
	pred := query.And{
		query.SetOverlaps{Field: query.FieldIngredientIDs, Values: ingredientIDs},
		query.Not{Term: query.Equals{Field: query.FieldID, Value: excludeID}},
	}
	return r.FindMany(ctx, kind, pred, outbound.FindOptions{})
}

// IncrementCounter atomically adds delta to a counter column
func (r *DishRepository) IncrementCounter(ctx context.Context, kind catalog.DishKind, id uuid.UUID, counter outbound.Counter, delta int) error {
	return incrementCounter(r.db.WithContext(ctx), kind, id, counter, delta)
}

func incrementCounter(tx *gorm.DB, kind catalog.DishKind, id uuid.UUID, counter outbound.Counter, delta int) error {
	switch counter {
	case outbound.CounterView, outbound.CounterClick, outbound.CounterCook, outbound.CounterBookmark:
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}
	col := string(counter)

	q := tx.Model(&DishModel{}).Where("id = ? AND kind = ?", id, string(kind))
	if delta < 0 {
		// never drive a counter below zero
		q = q.Where(col+" >= ?", -delta)
	}
	result := q.UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}
	return nil
}

// CountReferencing counts dishes of any kind listing the ingredient
func (r *DishRepository) CountReferencing(ctx context.Context, ingredientID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&DishIngredientModel{}).
		Distinct("dish_id").
		Where("ingredient_id = ?", ingredientID).
		Count(&n).Error
	return n, translateError(err)
}
