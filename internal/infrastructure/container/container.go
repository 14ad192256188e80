// Package container wires the application graph with Uber FX
package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/application/catalog"
	"github.com/pantrymatch/pantrymatch/internal/application/profile"
	"github.com/pantrymatch/pantrymatch/internal/application/search"
	"github.com/pantrymatch/pantrymatch/internal/domain/matching"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/cache"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/config"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/http/server"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/monitoring"
	gormRepo "github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/gorm"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/memory"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/postgres"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/sqlite"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/validation"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/pantrymatch/pantrymatch/pkg/healthcheck"
	"github.com/pantrymatch/pantrymatch/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the configuration file to load. Empty searches the default
// locations.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides the Prometheus registry, metric collectors and
// the tracer provider
var MonitoringModule = fx.Provide(
	func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	},
	monitoring.NewMetricsCollector,
	NewTracingProvider,
)

// NewTracingProvider installs the global tracer provider, exporting over
// OTLP/HTTP when an endpoint is configured
func NewTracingProvider(cfg *config.Config, lc fx.Lifecycle, log *zap.Logger) (*monitoring.TracingProvider, error) {
	var opts []sdktrace.TracerProviderOption
	if cfg.Monitoring.EnableTracing && cfg.Monitoring.TracingEndpoint != "" {
		exporter, err := otlptracehttp.New(context.Background(),
			otlptracehttp.WithEndpoint(cfg.Monitoring.TracingEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.Monitoring.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		SamplingRate:   cfg.Monitoring.TracingSampleRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log, opts...)

	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(NewDatabase)

// NewDatabase opens the configured catalog store. Postgres goes through the
// connection manager so read replicas are registered; SQLite is opened
// directly.
func NewDatabase(
	cfg *config.Config,
	metrics *monitoring.MetricsCollector,
	reg *prometheus.Registry,
	lc fx.Lifecycle,
	log *zap.Logger,
) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, metrics, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := cm.RegisterPoolMetrics(reg); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})
		return cm.GetDB(), nil

	default:
		db, err := sqlite.SetupDatabase(&cfg.Database, metrics, log)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(collectors.NewDBStatsCollector(sqlDB, "sqlite")); err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return sqlDB.Close() }})
		return db, nil
	}
}

// CacheModule provides caching
var CacheModule = fx.Provide(NewCache)

// NewCache builds the configured cache backend behind metrics and logging
func NewCache(
	cfg *config.Config,
	metrics *monitoring.MetricsCollector,
	lc fx.Lifecycle,
	log *zap.Logger,
) (outbound.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client, err := cache.NewRedisClient(&cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return cache.NewInstrumentedCache(client, "redis", metrics, log), nil

	default:
		store := memory.NewCacheRepository(cfg.Cache.MemoryCleanupInterval)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		log.Info("Using in-process cache",
			zap.Duration("cleanup_interval", cfg.Cache.MemoryCleanupInterval))
		return cache.NewInstrumentedCache(store, "memory", metrics, log), nil
	}
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewDishRepository,
		fx.As(new(outbound.DishRepository)),
	),
	fx.Annotate(
		gormRepo.NewIngredientRepository,
		fx.As(new(outbound.IngredientRepository)),
	),
	fx.Annotate(
		gormRepo.NewCategoryRepository,
		fx.As(new(outbound.CategoryRepository)),
	),
	fx.Annotate(
		gormRepo.NewProfileRepository,
		fx.As(new(outbound.ProfileRepository)),
	),
	fx.Annotate(
		gormRepo.NewEngagementRepository,
		fx.As(new(outbound.EngagementRepository)),
	),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	validation.NewService,
	NewCoordinator,

	func(repo outbound.ProfileRepository, c outbound.Cache, coord *cachepolicy.Coordinator, cfg *config.Config, log *zap.Logger) *profile.Service {
		return profile.NewService(repo, c, coord, cfg.Cache.TTL.Profile, log)
	},
	NewSearchService,
	NewDishService,
	NewIngredientService,
	func(
		engagement outbound.EngagementRepository,
		dishes outbound.DishRepository,
		v *validation.Service,
		coord *cachepolicy.Coordinator,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) *catalog.EngagementService {
		return catalog.NewEngagementService(engagement, dishes, v, coord, metrics, log)
	},

	// Inbound ports
	func(s *search.Service) inbound.SearchService { return s },
	func(s *catalog.DishService) inbound.DishService { return s },
	func(s *catalog.IngredientService) inbound.IngredientService { return s },
	func(s *catalog.EngagementService) inbound.EngagementService { return s },
	func(s *profile.Service) inbound.ProfileService { return s },
)

// NewCoordinator builds the cache invalidation coordinator every write path
// reports to
func NewCoordinator(c outbound.Cache, cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *cachepolicy.Coordinator {
	return cachepolicy.NewCoordinator(c, cachepolicy.CoordinatorConfig{
		Mode:           cachepolicy.Mode(cfg.Cache.InvalidationMode),
		MaxRetries:     cfg.Cache.InvalidationRetries,
		InitialBackoff: cfg.Cache.InvalidationBackoff,
	}, metrics, log)
}

func catalogTTLs(cfg *config.Config) catalog.TTLs {
	return catalog.TTLs{
		Detail:           cfg.Cache.TTL.Detail,
		Popular:          cfg.Cache.TTL.Popular,
		Ingredient:       cfg.Cache.TTL.Ingredient,
		IngredientSearch: cfg.Cache.TTL.IngredientSearch,
		Categories:       cfg.Cache.TTL.Categories,
	}
}

// ServiceDeps gathers what the read and write services share
type ServiceDeps struct {
	fx.In

	Config      *config.Config
	Dishes      outbound.DishRepository
	Ingredients outbound.IngredientRepository
	Categories  outbound.CategoryRepository
	Cache       outbound.Cache
	Profiles    *profile.Service
	Validator   *validation.Service
	Coordinator *cachepolicy.Coordinator
	Metrics     *monitoring.MetricsCollector
	Tracing     *monitoring.TracingProvider
	Logger      *zap.Logger
}

// NewSearchService builds the search orchestrator from configuration
func NewSearchService(deps ServiceDeps) (*search.Service, error) {
	cfg := deps.Config
	mode, err := matching.ParseMode(cfg.Search.MatchMode)
	if err != nil {
		return nil, err
	}

	return search.NewService(search.Dependencies{
		Dishes:      deps.Dishes,
		Categories:  deps.Categories,
		Ingredients: deps.Ingredients,
		Profiles:    deps.Profiles,
		Cache:       deps.Cache,
		Validator:   deps.Validator,
		Metrics:     deps.Metrics,
		Tracer:      deps.Tracing.Tracer("pantrymatch/search"),
	}, search.Config{
		DefaultLimit:        cfg.Search.DefaultLimit,
		MaxLimit:            cfg.Search.MaxLimit,
		MatchMode:           mode,
		SimilarDefaultLimit: cfg.Search.SimilarDefaultLimit,
		SimilarMaxLimit:     cfg.Search.SimilarMaxLimit,
		MaxCandidates:       cfg.Search.MaxCandidates,
		SearchTTL:           cfg.Cache.TTL.Search,
		SimilarTTL:          cfg.Cache.TTL.Similar,
		TrendingTTL:         cfg.Cache.TTL.Trending,
		AutocompleteTTL:     cfg.Cache.TTL.Autocomplete,
	}, deps.Logger), nil
}

// NewDishService builds the dish write and detail service
func NewDishService(deps ServiceDeps) *catalog.DishService {
	return catalog.NewDishService(catalog.DishDependencies{
		Dishes:      deps.Dishes,
		Ingredients: deps.Ingredients,
		Profiles:    deps.Profiles,
		Cache:       deps.Cache,
		Validator:   deps.Validator,
		Events:      deps.Coordinator,
		Metrics:     deps.Metrics,
	}, catalogTTLs(deps.Config), deps.Logger)
}

// NewIngredientService builds the ingredient catalog service
func NewIngredientService(deps ServiceDeps) *catalog.IngredientService {
	return catalog.NewIngredientService(catalog.IngredientDependencies{
		Ingredients: deps.Ingredients,
		Dishes:      deps.Dishes,
		Categories:  deps.Categories,
		Cache:       deps.Cache,
		Validator:   deps.Validator,
		Events:      deps.Coordinator,
		Metrics:     deps.Metrics,
	}, catalogTTLs(deps.Config), deps.Logger)
}

// HTTPModule provides the operator server
var HTTPModule = fx.Provide(
	NewHealthCheck,
	func(cfg *config.Config, hc *healthcheck.HealthCheck, metrics *monitoring.MetricsCollector, log *zap.Logger) *server.Server {
		var metricsHandler http.Handler
		if cfg.Monitoring.EnableMetrics {
			metricsHandler = metrics.Handler()
		}
		return server.NewServer(&cfg.Monitoring, hc.Handler(), metricsHandler, log)
	},
)

// NewHealthCheck registers probes for the store and the cache
func NewHealthCheck(cfg *config.Config, db *gorm.DB, c outbound.Cache, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	hc := healthcheck.New(cfg.App.Version, log.Named("health"))
	hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	hc.Register("cache", healthcheck.NewCacheChecker(cfg.Cache.Backend, c))
	return hc, nil
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks seeds the catalog when asked and runs the operator
// server for the lifetime of the application
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	c outbound.Cache,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting pantrymatch",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("cache", cfg.Cache.Backend),
				zap.String("invalidation_mode", cfg.Cache.InvalidationMode),
			)

			if cfg.App.SeedOnStart {
				if err := sqlite.SeedDatabase(ctx, db); err != nil {
					return fmt.Errorf("failed to seed database: %w", err)
				}
				// seed rows bypass the coordinator
				if err := c.FlushAll(ctx); err != nil {
					log.Warn("Failed to flush cache after seeding", zap.Error(err))
				}
			}

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("Operator server stopped", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down pantrymatch")

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown operator server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
