package gorm

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"gorm.io/gorm"
)

// EngagementRepository implements bookmarks and cook logs using GORM
type EngagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

var _ outbound.EngagementRepository = (*EngagementRepository)(nil)

// AddBookmark inserts the bookmark and increments bookmark_count atomically
func (r *EngagementRepository) AddBookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&BookmarkModel{Kind: string(kind), DishID: dishID, UserID: userID}).Error; err != nil {
			return err
		}
		return incrementCounter(tx, kind, dishID, outbound.CounterBookmark, 1)
	})
	return translateError(err)
}

// RemoveBookmark deletes the bookmark and decrements bookmark_count atomically
func (r *EngagementRepository) RemoveBookmark(ctx context.Context, kind catalog.DishKind, dishID uuid.UUID, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("kind = ? AND dish_id = ? AND user_id = ?", string(kind), dishID, userID).
			Delete(&BookmarkModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		err := incrementCounter(tx, kind, dishID, outbound.CounterBookmark, -1)
		if errors.Is(err, outbound.ErrNotFound) {
			// counter already at zero; the bookmark row is still gone
			return nil
		}
		return err
	})
	return translateError(err)
}

// ListBookmarks returns a user's bookmarked dish ids, newest first, with the total
func (r *EngagementRepository) ListBookmarks(ctx context.Context, kind catalog.DishKind, userID string, limit, offset int) ([]uuid.UUID, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&BookmarkModel{}).
		Where("kind = ? AND user_id = ?", string(kind), userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, translateError(err)
	}

	tx := r.db.WithContext(ctx).Model(&BookmarkModel{}).
		Where("kind = ? AND user_id = ?", string(kind), userID).
		Order("created_at DESC").
		Order("id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var ids []uuid.UUID
	if err := tx.Pluck("dish_id", &ids).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return ids, total, nil
}

// AddCookLog inserts the log, bumps cook_count and stores the new average of
// all non-null ratings of the dish
func (r *EngagementRepository) AddCookLog(ctx context.Context, log *outbound.CookLog) (float64, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	var avg float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dish DishModel
		err := tx.Select("id", "avg_rating").
			Where("id = ? AND kind = ?", log.DishID, string(log.Kind)).
			First(&dish).Error
		if err != nil {
			return err
		}
		if err := tx.Create(CookLogToModel(log)).Error; err != nil {
			return err
		}
		if err := incrementCounter(tx, log.Kind, log.DishID, outbound.CounterCook, 1); err != nil {
			return err
		}

		var mean sql.NullFloat64
		err = tx.Model(&CookLogModel{}).
			Select("AVG(rating)").
			Where("kind = ? AND dish_id = ? AND rating IS NOT NULL", string(log.Kind), log.DishID).
			Scan(&mean).Error
		if err != nil {
			return err
		}
		avg = dish.AvgRating
		if mean.Valid {
			avg = mean.Float64
		}
		return tx.Model(&DishModel{}).
			Where("id = ?", log.DishID).
			UpdateColumn("avg_rating", avg).Error
	})
	if err != nil {
		return 0, translateError(err)
	}
	return avg, nil
}
