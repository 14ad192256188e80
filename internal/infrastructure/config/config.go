// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Search     SearchConfig     `mapstructure:"search"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	// SeedOnStart loads the demo catalog into an empty database
	SeedOnStart bool `mapstructure:"seed_on_start"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver             string          `mapstructure:"driver"`
	Path               string          `mapstructure:"path"`
	Host               string          `mapstructure:"host"`
	Port               int             `mapstructure:"port"`
	Database           string          `mapstructure:"database"`
	Username           string          `mapstructure:"username"`
	Password           string          `mapstructure:"password"`
	SSLMode            string          `mapstructure:"ssl_mode"`
	MaxOpenConns       int             `mapstructure:"max_open_conns"`
	MaxIdleConns       int             `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration   `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration   `mapstructure:"conn_max_idle_time"`
	LogLevel           string          `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration   `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool            `mapstructure:"auto_migrate"`
	ReadReplicas       []ReplicaConfig `mapstructure:"read_replicas"`
	LoadBalancePolicy  string          `mapstructure:"load_balance_policy"`
}

// ReplicaConfig addresses one read replica
type ReplicaConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Password        string        `mapstructure:"password"`
	Database        int           `mapstructure:"database"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	EnableCluster   bool          `mapstructure:"enable_cluster"`
	ClusterNodes    []string      `mapstructure:"cluster_nodes"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of Redis
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the cache backend and entry lifetimes
type CacheConfig struct {
	// Backend is "redis" or "memory"
	Backend string `mapstructure:"backend"`
	// InvalidationMode is "prefix" (drop affected key families) or "flush"
	// (drop everything on catalog writes)
	InvalidationMode      string        `mapstructure:"invalidation_mode"`
	InvalidationRetries   uint64        `mapstructure:"invalidation_retries"`
	InvalidationBackoff   time.Duration `mapstructure:"invalidation_backoff"`
	MemoryCleanupInterval time.Duration `mapstructure:"memory_cleanup_interval"`
	TTL                   TTLConfig     `mapstructure:"ttl"`
}

// TTLConfig holds per-family cache lifetimes
type TTLConfig struct {
	Search           time.Duration `mapstructure:"search"`
	Profile          time.Duration `mapstructure:"profile"`
	Similar          time.Duration `mapstructure:"similar"`
	Detail           time.Duration `mapstructure:"detail"`
	Trending         time.Duration `mapstructure:"trending"`
	Popular          time.Duration `mapstructure:"popular"`
	Autocomplete     time.Duration `mapstructure:"autocomplete"`
	Ingredient       time.Duration `mapstructure:"ingredient"`
	IngredientSearch time.Duration `mapstructure:"ingredient_search"`
	Categories       time.Duration `mapstructure:"categories"`
}

// SearchConfig contains ranking defaults
type SearchConfig struct {
	DefaultLimit        int    `mapstructure:"default_limit"`
	MaxLimit            int    `mapstructure:"max_limit"`
	MatchMode           string `mapstructure:"match_mode"`
	SimilarDefaultLimit int    `mapstructure:"similar_default_limit"`
	SimilarMaxLimit     int    `mapstructure:"similar_max_limit"`
	// MaxCandidates caps the rows scored in memory by the substring matcher
	MaxCandidates int `mapstructure:"max_candidates"`
}

// MonitoringConfig contains metrics and tracing configuration
type MonitoringConfig struct {
	EnableMetrics   bool   `mapstructure:"enable_metrics"`
	MetricsAddr     string `mapstructure:"metrics_addr"`
	HealthCheckPath string `mapstructure:"health_check_path"`
	ServiceName     string `mapstructure:"service_name"`

	EnableTracing bool `mapstructure:"enable_tracing"`
	// TracingEndpoint is an OTLP/HTTP collector host:port; empty keeps spans in-process
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pantrymatch")
	}

	v.SetEnvPrefix("PANTRYMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pantrymatch")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.seed_on_start", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "pantrymatch.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "pantrymatch")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.load_balance_policy", "round_robin")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.breaker.failure_threshold", 5)
	v.SetDefault("redis.breaker.max_requests", 1)
	v.SetDefault("redis.breaker.interval", "60s")
	v.SetDefault("redis.breaker.timeout", "30s")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.invalidation_mode", "prefix")
	v.SetDefault("cache.invalidation_retries", 3)
	v.SetDefault("cache.invalidation_backoff", "50ms")
	v.SetDefault("cache.memory_cleanup_interval", "5m")
	v.SetDefault("cache.ttl.search", "300s")
	v.SetDefault("cache.ttl.profile", "1h")
	v.SetDefault("cache.ttl.similar", "1h")
	v.SetDefault("cache.ttl.detail", "1h")
	v.SetDefault("cache.ttl.trending", "300s")
	v.SetDefault("cache.ttl.popular", "1h")
	v.SetDefault("cache.ttl.autocomplete", "30m")
	v.SetDefault("cache.ttl.ingredient", "1h")
	v.SetDefault("cache.ttl.ingredient_search", "1h")
	v.SetDefault("cache.ttl.categories", "1h")

	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.match_mode", "exact")
	v.SetDefault("search.similar_default_limit", 10)
	v.SetDefault("search.similar_max_limit", 50)
	v.SetDefault("search.max_candidates", 5000)

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_addr", ":9090")
	v.SetDefault("monitoring.health_check_path", "/healthz")
	v.SetDefault("monitoring.service_name", "pantrymatch")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.tracing_sample_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("cache.backend must be redis or memory, got %q", c.Cache.Backend)
	}

	switch c.Cache.InvalidationMode {
	case "prefix", "flush":
	default:
		return fmt.Errorf("cache.invalidation_mode must be prefix or flush, got %q", c.Cache.InvalidationMode)
	}

	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be between 1 and search.max_limit")
	}

	if c.Monitoring.TracingSampleRate < 0 || c.Monitoring.TracingSampleRate > 1 {
		return fmt.Errorf("monitoring.tracing_sample_rate must be between 0 and 1")
	}

	if c.Search.SimilarDefaultLimit < 1 || c.Search.SimilarDefaultLimit > c.Search.SimilarMaxLimit {
		return fmt.Errorf("search.similar_default_limit must be between 1 and search.similar_max_limit")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string
func (c *Config) GetDSN() string {
	return c.Database.dsn(c.Database.Host, c.Database.Port, c.Database.Username, c.Database.Password)
}

// ReplicaDSNs returns connection strings for the configured read replicas
func (c *Config) ReplicaDSNs() []string {
	dsns := make([]string, 0, len(c.Database.ReadReplicas))
	for _, r := range c.Database.ReadReplicas {
		user, pass := r.Username, r.Password
		if user == "" {
			user, pass = c.Database.Username, c.Database.Password
		}
		dsns = append(dsns, c.Database.dsn(r.Host, r.Port, user, pass))
	}
	return dsns
}

func (d DatabaseConfig) dsn(host string, port int, user, password string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, d.Database, d.SSLMode)
}
