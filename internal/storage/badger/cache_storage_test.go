package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/interfaces"
)

func newTestCache(t *testing.T) interfaces.CacheStore {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewCacheStorage(store, common.NewSilentLogger())
}

func TestCacheStorage_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, interfaces.CacheKeyProfile, `{"income":50000}`))

	value, err := cache.Get(ctx, interfaces.CacheKeyProfile)
	require.NoError(t, err)
	assert.Equal(t, `{"income":50000}`, value)
}

func TestCacheStorage_GetMissingKey(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestCacheStorage_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v1"))
	require.NoError(t, cache.Set(ctx, "k", "v2"))

	value, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestCacheStorage_Delete(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	require.NoError(t, cache.Delete(ctx, "k"))

	_, err := cache.Get(ctx, "k")
	assert.Error(t, err)

	// Deleting a missing key is not an error.
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestCacheStorage_SetBumpsTimestamp(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	before := time.Now()
	require.NoError(t, cache.Set(ctx, "k", "v"))

	ts, err := cache.GetTimestamp(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ts.Before(before.Add(-time.Second)))
}

func TestCacheStorage_TimestampForMissingKeyIsZero(t *testing.T) {
	cache := newTestCache(t)

	ts, err := cache.GetTimestamp(context.Background(), "nope")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestCacheStorage_SetTimestamp(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Set(ctx, "k", "v"))
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, cache.SetTimestamp(ctx, "k", past))

	ts, err := cache.GetTimestamp(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ts.Equal(past) || ts.Sub(past) < time.Second)

	value, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value, "SetTimestamp must not clobber the value")
}
