package gorm

import (
	"context"
	"strings"

	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/gorm"
)

// CategoryRepository implements the category repository interface using GORM
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ outbound.CategoryRepository = (*CategoryRepository)(nil)

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	model := CategoryToModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	c.ID = model.ID
	return nil
}

// FindByNameContains returns the first category of kind, by name, whose name
// contains fragment case-insensitively
func (r *CategoryRepository) FindByNameContains(ctx context.Context, kind, fragment string) (*catalog.Category, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, outbound.ErrNotFound
	}
	var model CategoryModel
	err := r.db.WithContext(ctx).
		Where(`kind = ? AND LOWER(name) LIKE ? ESCAPE '\'`, kind, containsPattern(fragment)).
		Order("name ASC").
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	c := ModelToCategory(&model)
	return &c, nil
}

// List returns all categories of kind ordered by name
func (r *CategoryRepository) List(ctx context.Context, kind string) ([]catalog.Category, error) {
	var models []CategoryModel
	if err := r.db.WithContext(ctx).Where("kind = ?", kind).Order("name ASC").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	out := make([]catalog.Category, len(models))
	for i := range models {
		out[i] = ModelToCategory(&models[i])
	}
	return out, nil
}
