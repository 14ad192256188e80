// Package gorm provides GORM model definitions and repositories for the catalog store
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IngredientModel represents the GORM model for catalog ingredients
type IngredientModel struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey"`
	Name       string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Slug       string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	IsVeg      bool       `gorm:"default:false;index"`
	IsVegan    bool       `gorm:"default:false;index"`
	IsDairy    bool       `gorm:"default:false"`
	IsNut      bool       `gorm:"default:false"`
	IsGluten   bool       `gorm:"default:false"`
	CategoryID *uuid.UUID `gorm:"type:char(36);index"`
	IsVerified bool       `gorm:"default:false;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Relationships
	Aliases []IngredientAliasModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

// IngredientAliasModel stores one lower-cased alias of an ingredient
type IngredientAliasModel struct {
	IngredientID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Alias        string    `gorm:"type:varchar(255);primaryKey;index"`
}

// CategoryModel represents the GORM model for dish and ingredient categories
type CategoryModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Kind        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_category_kind_name"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_kind_name"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time
}

// DishModel represents the GORM model for meals and recipes. The ingredient
// arrays are denormalized for display; filtering goes through DishIngredientModel.
type DishModel struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey"`
	Kind             string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_dish_kind_slug;index"`
	Title            string    `gorm:"type:varchar(255);not null"`
	Slug             string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_dish_kind_slug"`
	ShortDescription string    `gorm:"type:text"`
	Instructions     string    `gorm:"type:text"`
	ImageURL         string    `gorm:"type:varchar(500)"`

	IngredientIDs   datatypes.JSONSlice[string]
	IngredientNames datatypes.JSONSlice[string]
	IngredientSlugs datatypes.JSONSlice[string]

	// Dietary flags
	IsVeg            bool `gorm:"default:false;index"`
	IsVegan          bool `gorm:"default:false;index"`
	DairyFree        bool `gorm:"default:false"`
	NutFree          bool `gorm:"default:false"`
	GlutenFree       bool `gorm:"default:false"`
	DiabetesFriendly bool `gorm:"default:false"`

	Difficulty         string     `gorm:"type:varchar(10);index"`
	CookingTimeMinutes *int       `gorm:"index"`
	CategoryID         *uuid.UUID `gorm:"type:char(36);index"`

	// Engagement
	ViewCount     int64   `gorm:"default:0"`
	ClickCount    int64   `gorm:"default:0;index"`
	CookCount     int64   `gorm:"default:0;index"`
	BookmarkCount int64   `gorm:"default:0"`
	AvgRating     float64 `gorm:"default:0"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// DishIngredientModel is one ingredient line of a dish. Name is lower-cased
// so overlap filters compare exactly.
type DishIngredientModel struct {
	DishID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	Position     int       `gorm:"primaryKey;autoIncrement:false"`
	Kind         string    `gorm:"type:varchar(10);not null;index:idx_dish_ing_kind_name"`
	IngredientID uuid.UUID `gorm:"type:char(36);not null;index"`
	Name         string    `gorm:"type:varchar(255);not null;index:idx_dish_ing_kind_name"`
	Slug         string    `gorm:"type:varchar(255)"`
	Quantity     string    `gorm:"type:varchar(100)"`
	IsOptional   bool      `gorm:"default:false"`
}

// DietProfileModel represents the GORM model for user dietary profiles
type DietProfileModel struct {
	UserID      string `gorm:"type:varchar(64);primaryKey"`
	VegType     string `gorm:"type:varchar(20);default:'omnivore'"`
	DairyFree   bool   `gorm:"default:false"`
	NutFree     bool   `gorm:"default:false"`
	GlutenFree  bool   `gorm:"default:false"`
	HasDiabetes bool   `gorm:"default:false"`
	UpdatedAt   time.Time
}

// BookmarkModel represents a user's bookmark on a dish
type BookmarkModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Kind      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_bookmark_unique"`
	DishID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_bookmark_unique"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_bookmark_unique;index"`
	CreatedAt time.Time `gorm:"index"`
}

// CookLogModel records one cook of a dish, optionally rated
type CookLogModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Kind      string    `gorm:"type:varchar(10);not null"`
	DishID    uuid.UUID `gorm:"type:char(36);not null;index"`
	UserID    string    `gorm:"type:varchar(64);not null;index"`
	Rating    *int      `gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)"`
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&CategoryModel{},
		&IngredientModel{},
		&IngredientAliasModel{},
		&DishModel{},
		&DishIngredientModel{},
		&DietProfileModel{},
		&BookmarkModel{},
		&CookLogModel{},
	}
}

// BeforeCreate hook for IngredientModel
func (m *IngredientModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for CategoryModel
func (m *CategoryModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for DishModel
func (m *DishModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for BookmarkModel
func (m *BookmarkModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for CookLogModel
func (m *CookLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (IngredientModel) TableName() string {
	return "ingredients"
}

func (IngredientAliasModel) TableName() string {
	return "ingredient_aliases"
}

func (CategoryModel) TableName() string {
	return "categories"
}

func (DishModel) TableName() string {
	return "dishes"
}

func (DishIngredientModel) TableName() string {
	return "dish_ingredients"
}

func (DietProfileModel) TableName() string {
	return "diet_profiles"
}

func (BookmarkModel) TableName() string {
	return "bookmarks"
}

func (CookLogModel) TableName() string {
	return "cook_logs"
}
