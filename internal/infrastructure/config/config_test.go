package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromDir(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "prefix", cfg.Cache.InvalidationMode)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL.Search)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Profile)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Similar)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL.Autocomplete)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.Equal(t, 10, cfg.Search.SimilarDefaultLimit)
	assert.Equal(t, uint32(5), cfg.Redis.Breaker.FailureThreshold)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  database: catalog
  read_replicas:
    - host: replica-1
      port: 5433
cache:
  backend: redis
  ttl:
    search: 60s
`), 0o600))
	t.Setenv("PANTRYMATCH_CACHE_INVALIDATION_MODE", "flush")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "flush", cfg.Cache.InvalidationMode)
	assert.Equal(t, time.Minute, cfg.Cache.TTL.Search)
	require.Len(t, cfg.ReplicaDSNs(), 1)
	assert.Contains(t, cfg.ReplicaDSNs()[0], "host=replica-1 port=5433")
	assert.Contains(t, cfg.GetDSN(), "dbname=catalog")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Name: "pantrymatch"},
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Cache:    CacheConfig{Backend: "memory", InvalidationMode: "prefix"},
			Search:   SearchConfig{DefaultLimit: 20, MaxLimit: 100, SimilarDefaultLimit: 10, SimilarMaxLimit: 50},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "database.driver")

	cfg = base()
	cfg.Cache.Backend = "memcached"
	assert.ErrorContains(t, cfg.Validate(), "cache.backend")

	cfg = base()
	cfg.Cache.InvalidationMode = "lazy"
	assert.ErrorContains(t, cfg.Validate(), "cache.invalidation_mode")

	cfg = base()
	cfg.Search.DefaultLimit = 500
	assert.ErrorContains(t, cfg.Validate(), "search.default_limit")
}

func loadFromDir(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return Load("")
}
