package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/memory"
	"github.com/pantrymatch/pantrymatch/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func fixed(status Status) *CustomChecker {
	return NewCustomChecker("fixed", func(context.Context) (Status, string, interface{}) {
		return status, string(status), nil
	})
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		expected Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, s := range tt.statuses {
				hc.Register(string(rune('a'+i)), fixed(s))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.expected, response.Status)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_Check_ReusesRecentReport(t *testing.T) {
	var calls int32
	hc := New("1.0.0", zap.NewNop())
	hc.Register("counting", NewCustomChecker("counting", func(context.Context) (Status, string, interface{}) {
		atomic.AddInt32(&calls, 1)
		return StatusHealthy, "", nil
	}))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHealthCheck_Handler(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected int
	}{
		{"healthy", StatusHealthy, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("2.1.0", zap.NewNop())
			hc.Register("probe", fixed(tt.status))
			rec := httptest.NewRecorder()

			hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.expected, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.status), body["status"])
			assert.Equal(t, "2.1.0", body["version"])
			assert.Contains(t, body, "total_duration_ms")
		})
	}
}

func TestDatabaseChecker(t *testing.T) {
	db := testutils.NewTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	check := NewDatabaseChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Metadata, "open_conns")

	require.NoError(t, sqlDB.Close())
	check = NewDatabaseChecker(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestCacheChecker(t *testing.T) {
	cache := memory.NewCacheRepository(0)
	defer cache.Close()

	check := NewCacheChecker("memory", cache).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)

	down := NewCacheChecker("redis", pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	}))
	check = down.Check(context.Background())
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "connection refused", check.Message)
}

func TestCheck_MarshalJSON_DurationInMilliseconds(t *testing.T) {
	data, err := json.Marshal(Check{Name: "db", Status: StatusHealthy, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(1500), body["duration_ms"])
}
