package gorm

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const monitorStartKey = "query_monitor:start"

// QueryObserver receives the latency of every store query
type QueryObserver interface {
	DBQuery(operation string, duration time.Duration)
}

// QueryStats holds aggregated query statistics
type QueryStats struct {
	TotalQueries  int64         `json:"total_queries"`
	SlowQueries   int64         `json:"slow_queries"`
	FailedQueries int64         `json:"failed_queries"`
	TotalTime     time.Duration `json:"total_query_time"`
}

// QueryMonitor tracks query latency through GORM callbacks
type QueryMonitor struct {
	logger        *zap.Logger
	observer      QueryObserver
	slowThreshold time.Duration

	mu    sync.Mutex
	stats QueryStats
}

// NewQueryMonitor creates a new query monitor. observer may be nil.
func NewQueryMonitor(observer QueryObserver, slowThreshold time.Duration, logger *zap.Logger) *QueryMonitor {
	if slowThreshold <= 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &QueryMonitor{
		logger:        logger.Named("query-monitor"),
		observer:      observer,
		slowThreshold: slowThreshold,
	}
}

// Install registers before/after callbacks on every GORM processor
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("monitor:before_query", qm.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("monitor:after_query", qm.after("query")); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("monitor:before_create", qm.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("monitor:after_create", qm.after("create")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("monitor:before_update", qm.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("monitor:after_update", qm.after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("monitor:before_delete", qm.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("monitor:after_delete", qm.after("delete")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("monitor:before_row", qm.before); err != nil {
		return err
	}
	return cb.Row().After("gorm:row").Register("monitor:after_row", qm.after("row"))
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	db.InstanceSet(monitorStartKey, time.Now())
}

func (qm *QueryMonitor) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(monitorStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		qm.record(op, db.Statement.Table, db.Statement.SQL.String(), time.Since(start), db.Error)
	}
}

func (qm *QueryMonitor) record(op, table, sql string, duration time.Duration, err error) {
	label := op
	if table != "" {
		label = op + ":" + table
	}
	if qm.observer != nil {
		qm.observer.DBQuery(label, duration)
	}

	failed := err != nil && err != gorm.ErrRecordNotFound
	slow := duration > qm.slowThreshold

	qm.mu.Lock()
	qm.stats.TotalQueries++
	qm.stats.TotalTime += duration
	if failed {
		qm.stats.FailedQueries++
	}
	if slow {
		qm.stats.SlowQueries++
	}
	qm.mu.Unlock()

	if slow {
		qm.logger.Warn("Slow query detected",
			zap.String("operation", label),
			zap.String("sql", sanitizeSQL(sql)),
			zap.Duration("duration", duration))
	}
}

// Stats returns a snapshot of the aggregated statistics
func (qm *QueryMonitor) Stats() QueryStats {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	return qm.stats
}

func sanitizeSQL(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > 500 {
		return sql[:500] + "..."
	}
	return sql
}

// GORMLogWriter implements GORM's Writer interface on zap
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements the Writer interface
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	// Log based on content
	if strings.Contains(msg, "SLOW SQL") {
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	} else if strings.Contains(msg, "Error") || strings.Contains(msg, "ERROR") {
		w.logger.Error("GORM error", zap.String("message", msg))
	} else {
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}

// NewLogger builds a GORM logger writing through zap
func NewLogger(zl *zap.Logger, level string, slowThreshold time.Duration) logger.Interface {
	logLevel := logger.Silent
	switch strings.ToLower(level) {
	case "debug", "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	return logger.New(
		&GORMLogWriter{logger: zl.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
