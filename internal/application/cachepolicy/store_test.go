package cachepolicy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/application/cachepolicy"
	"github.com/pantrymatch/pantrymatch/internal/infrastructure/persistence/memory"
	"github.com/pantrymatch/pantrymatch/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedPage struct {
	Titles []string `json:"titles"`
	Total  int64    `json:"total"`
}

func TestRemember_LoadsOnceThenHits(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	store := cachepolicy.NewStore(cache, zap.NewNop())
	loads := 0
	load := func(context.Context) (cachedPage, error) {
		loads++
		return cachedPage{Titles: []string{"Caprese Salad"}, Total: 1}, nil
	}

	// Act
	first, hit1, err1 := cachepolicy.Remember(ctx, store, "meal-search:k", time.Minute, load)
	second, hit2, err2 := cachepolicy.Remember(ctx, store, "meal-search:k", time.Minute, load)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.False(t, hit1)
	assert.True(t, hit2)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)
}

func TestRemember_LoadErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	store := cachepolicy.NewStore(cache, zap.NewNop())
	boom := errors.New("database unavailable")

	_, _, err := cachepolicy.Remember(ctx, store, "k", time.Minute, func(context.Context) (cachedPage, error) {
		return cachedPage{}, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestFetch_UndecodableEntryIsDropped(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	store := cachepolicy.NewStore(cache, zap.NewNop())
	require.NoError(t, cache.Set(ctx, "k", []byte("not json"), time.Minute))

	// Act
	var page cachedPage
	found := store.Fetch(ctx, "k", &page)

	// Assert
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestRemember_CacheOutageFallsThroughToLoader(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := new(testutils.MockCache)
	cache.SetupUnavailable(errors.New("dial tcp: connection refused"))
	store := cachepolicy.NewStore(cache, zap.NewNop())

	// Act
	page, hit, err := cachepolicy.Remember(ctx, store, "k", time.Minute, func(context.Context) (cachedPage, error) {
		return cachedPage{Total: 3}, nil
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(3), page.Total)
	cache.AssertCalled(t, "Set", ctx, "k", []byte(`{"titles":null,"total":3}`), time.Minute)
}

func TestDrop_IgnoresCacheErrors(t *testing.T) {
	cache := new(testutils.MockCache)
	cache.SetupUnavailable(errors.New("timeout"))
	store := cachepolicy.NewStore(cache, zap.NewNop())

	assert.NotPanics(t, func() { store.Drop(context.Background(), "a", "b") })
	cache.AssertCalled(t, "Delete", context.Background(), []string{"a", "b"})
}
