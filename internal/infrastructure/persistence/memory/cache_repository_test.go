package memory

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pantrymatch/pantrymatch/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheRepository, *time.Time) {
	t.Helper()
	repo := NewCacheRepository(0)
	t.Cleanup(func() { _ = repo.Close() })

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	return repo, &now
}

func TestCacheRepository_GetSet(t *testing.T) {
	ctx := context.Background()
	repo, now := newTestCache(t)

	_, err := repo.Get(ctx, "meal:1")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "meal:1", []byte(`{"id":"1"}`), time.Minute))
	got, err := repo.Get(ctx, "meal:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	*now = now.Add(61 * time.Second)
	_, err = repo.Get(ctx, "meal:1")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	repo, now := newTestCache(t)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))
	*now = now.Add(365 * 24 * time.Hour)

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestCacheRepository_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestCache(t)

	value := []byte("abc")
	require.NoError(t, repo.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestCacheRepository_DeleteAndPrefix(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestCache(t)

	for _, k := range []string{"meal-search:u1:egg", "meal-search:u2:rice", "meal:1", "ingredient:9"} {
		require.NoError(t, repo.Set(ctx, k, []byte("x"), time.Hour))
	}

	n, err := repo.Delete(ctx, "meal:1", "meal:missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	keys, err := repo.Keys(ctx, "meal-search:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"meal-search:u1:egg", "meal-search:u2:rice"}, keys)

	n, err = repo.DeletePrefix(ctx, "meal-search:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Get(ctx, "ingredient:9")
	assert.NoError(t, err)

	require.NoError(t, repo.FlushAll(ctx))
	assert.Zero(t, repo.Len())
}

func TestCacheRepository_SweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	repo, now := newTestCache(t)

	require.NoError(t, repo.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, repo.Set(ctx, "long", []byte("x"), time.Hour))
	*now = now.Add(time.Minute)

	repo.sweep()

	assert.Equal(t, 1, repo.Len())
}

func TestCacheRepository_CanceledContext(t *testing.T) {
	repo, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Set(ctx, "k", nil, 0), context.Canceled)
}

func TestCacheRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(time.Millisecond)
	defer repo.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i))
			for j := 0; j < 200; j++ {
				_ = repo.Set(ctx, key, []byte("v"), time.Millisecond)
				_, _ = repo.Get(ctx, key)
				_, _ = repo.DeletePrefix(ctx, "zz")
			}
		}(i)
	}
	wg.Wait()
}
