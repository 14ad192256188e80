package gorm

import (
	"context"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/domain/user"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository implements the profile repository interface using GORM
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ outbound.ProfileRepository = (*ProfileRepository)(nil)

// FindByUserID finds the dietary profile of a user
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*user.DietProfile, error) {
	var model DietProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return ModelToProfile(&model), nil
}

// Upsert inserts or replaces the profile of a user
func (r *ProfileRepository) Upsert(ctx context.Context, profile *user.DietProfile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"veg_type", "dairy_free", "nut_free", "gluten_free", "has_diabetes", "updated_at"}),
	}).Create(ProfileToModel(profile)).Error
	return translateError(err)
}
