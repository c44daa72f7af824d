package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/domain/providers"
)

func TestMemoryAdapter_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	a, err := NewMemoryAdapter(8)
	require.NoError(t, err)

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 60))
	got, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := a.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	_, err = a.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_MissAndDelete(t *testing.T) {
	ctx := context.Background()
	a, err := NewMemoryAdapter(2)
	require.NoError(t, err)

	_, err = a.Get(ctx, "absent")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, a.Delete(ctx, "k"))
	ok, err := a.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryAdapter_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	a, err := NewMemoryAdapter(2)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, a.Set(ctx, "b", []byte("2"), 0))
	_, _ = a.Get(ctx, "a")
	require.NoError(t, a.Set(ctx, "c", []byte("3"), 0))

	_, err = a.Get(ctx, "b")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = a.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryAdapter_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	a, err := NewMemoryAdapter(8)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "event_query:1", []byte("1"), 0))
	require.NoError(t, a.Set(ctx, "event_query:2", []byte("2"), 0))
	require.NoError(t, a.Set(ctx, "http:cache:report", []byte("3"), 0))

	n, err := a.DeletePrefix(ctx, "event_query:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = a.Get(ctx, "event_query:1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = a.Get(ctx, "http:cache:report")
	assert.NoError(t, err)
}
