// Package migrations brings the catalog schema up to date
package migrations

import (
	"fmt"
	"time"

	gormModels "github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Up creates or alters every catalog table to match the current models
func Up(db *gorm.DB, logger *zap.Logger) error {
	start := time.Now()
	logger.Info("Running database migrations", zap.String("dialect", db.Dialector.Name()))

	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}
