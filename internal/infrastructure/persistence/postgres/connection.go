// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/config"
	gormModels "github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ConnectionManager owns the primary connection and the read replicas
// routed through dbresolver
type ConnectionManager struct {
	config       *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	writeDB      *sql.DB
	queryMonitor *gormModels.QueryMonitor
	replicas     int
}

// ConnectionConfig holds pool and monitoring settings
type ConnectionConfig struct {
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	LogLevel           string
	LoadBalancePolicy  string
}

// DefaultConnectionConfig returns the pool defaults used when config leaves them unset
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		MaxOpenConns:       50,
		MaxIdleConns:       10,
		ConnMaxLifetime:    30 * time.Minute,
		ConnMaxIdleTime:    5 * time.Minute,
		SlowQueryThreshold: 200 * time.Millisecond,
		LogLevel:           "warn",
		LoadBalancePolicy:  "round_robin",
	}
}

func connectionConfigFrom(db config.DatabaseConfig) *ConnectionConfig {
	cc := DefaultConnectionConfig()
	if db.MaxOpenConns > 0 {
		cc.MaxOpenConns = db.MaxOpenConns
	}
	if db.MaxIdleConns > 0 {
		cc.MaxIdleConns = db.MaxIdleConns
	}
	if db.ConnMaxLifetime > 0 {
		cc.ConnMaxLifetime = db.ConnMaxLifetime
	}
	if db.ConnMaxIdleTime > 0 {
		cc.ConnMaxIdleTime = db.ConnMaxIdleTime
	}
	if db.SlowQueryThreshold > 0 {
		cc.SlowQueryThreshold = db.SlowQueryThreshold
	}
	if db.LogLevel != "" {
		cc.LogLevel = db.LogLevel
	}
	if db.LoadBalancePolicy != "" {
		cc.LoadBalancePolicy = db.LoadBalancePolicy
	}
	return cc
}

// NewConnectionManager connects to the primary, registers read replicas and
// migrates the schema when enabled. observer may be nil.
func NewConnectionManager(cfg *config.Config, observer gormModels.QueryObserver, log *zap.Logger) (*ConnectionManager, error) {
	connConfig := connectionConfigFrom(cfg.Database)

	cm := &ConnectionManager{
		config:       cfg,
		logger:       log.Named("postgres"),
		queryMonitor: gormModels.NewQueryMonitor(observer, connConfig.SlowQueryThreshold, log),
	}

	if err := cm.initializePrimaryConnection(connConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if err := cm.initializeReadReplicas(connConfig); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cm.db, cm.logger); err != nil {
			return nil, err
		}
	}

	cm.logger.Info("Database connection manager initialized",
		zap.Int("max_open_conns", connConfig.MaxOpenConns),
		zap.Int("max_idle_conns", connConfig.MaxIdleConns),
		zap.Duration("conn_max_lifetime", connConfig.ConnMaxLifetime),
		zap.Duration("slow_query_threshold", connConfig.SlowQueryThreshold),
		zap.Int("read_replicas", cm.replicas),
	)

	return cm, nil
}

func (cm *ConnectionManager) initializePrimaryConnection(cc *ConnectionConfig) error {
	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:                 gormModels.NewLogger(cm.logger, cc.LogLevel, cc.SlowQueryThreshold),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cc.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cc.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cc.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cc.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB

	if err := cm.queryMonitor.Install(db); err != nil {
		cm.logger.Warn("Failed to install query monitoring", zap.Error(err))
	}

	return nil
}

// initializeReadReplicas routes reads (search, listing, detail) to replicas
func (cm *ConnectionManager) initializeReadReplicas(cc *ConnectionConfig) error {
	dsns := cm.config.ReplicaDSNs()
	if len(dsns) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(dsns))
	for i, dsn := range dsns {
		replicas[i] = postgres.Open(dsn)
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   getLoadBalancePolicy(cc.LoadBalancePolicy),
	}).
		SetMaxOpenConns(cc.MaxOpenConns).
		SetMaxIdleConns(cc.MaxIdleConns).
		SetConnMaxLifetime(cc.ConnMaxLifetime).
		SetConnMaxIdleTime(cc.ConnMaxIdleTime)

	if err := cm.db.Use(resolver); err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}
	cm.replicas = len(dsns)

	cm.logger.Info("Read replicas configured",
		zap.Int("replica_count", len(dsns)),
		zap.String("load_balance_policy", cc.LoadBalancePolicy),
	)

	return nil
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// GetQueryMonitor returns the query monitor
func (cm *ConnectionManager) GetQueryMonitor() *gormModels.QueryMonitor {
	return cm.queryMonitor
}

// RegisterPoolMetrics exports sql.DBStats of the primary pool
func (cm *ConnectionManager) RegisterPoolMetrics(reg prometheus.Registerer) error {
	return reg.Register(collectors.NewDBStatsCollector(cm.writeDB, cm.config.Database.Database))
}

// HealthCheck pings the primary database
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes the primary pool
func (cm *ConnectionManager) Close() error {
	if cm.writeDB == nil {
		return nil
	}
	if err := cm.writeDB.Close(); err != nil {
		cm.logger.Error("Failed to close primary database", zap.Error(err))
		return err
	}
	return nil
}

// getLoadBalancePolicy converts string to dbresolver policy
func getLoadBalancePolicy(policy string) dbresolver.Policy {
	switch policy {
	case "random":
		return dbresolver.RandomPolicy{}
	case "round_robin":
		return dbresolver.RoundRobinPolicy()
	default:
		return dbresolver.RandomPolicy{}
	}
}
