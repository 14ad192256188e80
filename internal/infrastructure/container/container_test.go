package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/domain/catalog"
	"github.com/pantrymatch/pantrymatch/internal/ports/inbound"
	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/pantrymatch/pantrymatch/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func writeConfig(t *testing.T, body string) ConfigPath {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return ConfigPath(path)
}

const inMemoryConfig = `
app:
  log_level: error
  seed_on_start: true
database:
  driver: sqlite
  path: ":memory:"
cache:
  backend: memory
  memory_cleanup_interval: 0s
monitoring:
  metrics_addr: "127.0.0.1:0"
`

func TestModule_BootsAndServes(t *testing.T) {
	var (
		searches inbound.SearchService
		dishes   inbound.DishService
		cache    outbound.Cache
		health   *healthcheck.HealthCheck
	)

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(writeConfig(t, inMemoryConfig)),
		Module,
		fx.Populate(&searches, &dishes, &cache, &health),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()

	all, err := searches.SearchDishes(ctx, inbound.SearchQuery{Kind: catalog.KindMeal})
	require.NoError(t, err)
	assert.NotZero(t, all.Total, "seeded catalog should be searchable")

	first := all.Results[0]
	_, err = dishes.GetDish(ctx, catalog.KindMeal, first.ID, "")
	require.NoError(t, err)
	_, err = cache.Get(ctx, cachepolicy.NewKeyBuilder().Dish(catalog.KindMeal, first.ID))
	assert.NoError(t, err, "detail read should be cached")

	report := health.Check(ctx)
	assert.Equal(t, healthcheck.StatusHealthy, report.Status)
	assert.Len(t, report.Checks, 2)
}

func TestModule_RejectsInvalidConfig(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(writeConfig(t, "cache:\n  backend: memcached\n")),
		Module,
	)

	require.Error(t, app.Err())
}
