// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"strings"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/config"
	gormModels "github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/migrations"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDatabase opens the SQLite database, installs query monitoring and
// migrates the schema when enabled
func SetupDatabase(cfg *config.DatabaseConfig, observer gormModels.QueryObserver, logger *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.Path
	inMemory := dsn == "" || dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if dsn == "" {
		dsn = ":memory:"
	}
	if !inMemory && !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormModels.NewLogger(logger, cfg.LogLevel, cfg.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if inMemory {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	monitor := gormModels.NewQueryMonitor(observer, cfg.SlowQueryThreshold, logger)
	if err := monitor.Install(db); err != nil {
		logger.Warn("Failed to install query monitoring", zap.Error(err))
	}

	if cfg.AutoMigrate || inMemory {
		if err := migrations.Up(db, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("SQLite database ready",
		zap.String("path", dsn),
		zap.Bool("in_memory", inMemory))

	return db, nil
}
