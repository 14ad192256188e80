package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// Cache metrics
	cacheOperations *prometheus.CounterVec
	cacheDuration   *prometheus.HistogramVec
	invalidations   *prometheus.CounterVec

	// Search metrics
	searchRequests *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	searchResults  prometheus.Histogram

	// Catalog metrics
	catalogMutations *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec
}

// NewMetricsCollector registers all collectors on reg
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		gatherer: reg,

		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantrymatch_cache_operations_total",
				Help: "Cache operations by operation, backend and outcome",
			},
			[]string{"operation", "backend", "status"},
		),
		cacheDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantrymatch_cache_operation_duration_seconds",
				Help:    "Cache operation latency in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"operation", "backend"},
		),
		invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantrymatch_cache_invalidations_total",
				Help: "Cache invalidations by triggering event and outcome",
			},
			[]string{"event", "status"},
		),
		searchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantrymatch_search_requests_total",
				Help: "Search requests by dish kind and answer source",
			},
			[]string{"kind", "source"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantrymatch_search_duration_seconds",
				Help:    "End-to-end search latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		searchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pantrymatch_search_total_matches",
				Help:    "Total matching dishes per search",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		catalogMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantrymatch_catalog_mutations_total",
				Help: "Catalog writes by entity and operation",
			},
			[]string{"entity", "operation"},
		),
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantrymatch_db_query_duration_seconds",
				Help:    "Store query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// CacheOperation records one cache call
func (m *MetricsCollector) CacheOperation(operation, backend, status string, duration time.Duration) {
	m.cacheOperations.WithLabelValues(operation, backend, status).Inc()
	m.cacheDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// Invalidation records one invalidation attempt
func (m *MetricsCollector) Invalidation(event, status string) {
	m.invalidations.WithLabelValues(event, status).Inc()
}

// SearchServed records one search answered from source ("cache" or "store")
func (m *MetricsCollector) SearchServed(kind, source string, total int64, duration time.Duration) {
	m.searchRequests.WithLabelValues(kind, source).Inc()
	m.searchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if source == "store" {
		m.searchResults.Observe(float64(total))
	}
}

// CatalogMutation records a catalog write
func (m *MetricsCollector) CatalogMutation(entity, operation string) {
	m.catalogMutations.WithLabelValues(entity, operation).Inc()
}

// DBQuery records a store query
func (m *MetricsCollector) DBQuery(operation string, duration time.Duration) {
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
