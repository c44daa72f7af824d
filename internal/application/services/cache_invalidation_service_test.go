package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

type chanEventBus struct {
	ch chan *entities.CorpusEvent
}

func newChanEventBus() *chanEventBus {
	return &chanEventBus{ch: make(chan *entities.CorpusEvent, 4)}
}

func (b *chanEventBus) Publish(_ context.Context, _ string, event *entities.CorpusEvent) error {
	b.ch <- event
	return nil
}

func (b *chanEventBus) Subscribe(context.Context, string) (<-chan *entities.CorpusEvent, error) {
	return b.ch, nil
}

func (b *chanEventBus) Unsubscribe(context.Context, string) error { return nil }

func (b *chanEventBus) Close() error { return nil }

func TestCacheInvalidationService_DropsSearchResultsOnCorpusChange(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, searchCachePrefix+"a", []byte("[]"), 0))
	require.NoError(t, c.Set(ctx, searchCachePrefix+"b", []byte("[]"), 0))
	require.NoError(t, c.Set(ctx, "http:cache:/api/analytics/zero-results", []byte("{}"), 0))

	bus := newChanEventBus()
	svc := NewCacheInvalidationService(c, bus)
	require.NoError(t, svc.Start())

	require.NoError(t, bus.Publish(ctx, "", entities.NewCorpusEvent(entities.CorpusEventReindexed, "indexer", 8)))

	assert.Eventually(t, func() bool {
		ok, _ := c.Exists(ctx, searchCachePrefix+"a")
		return !ok
	}, time.Second, 10*time.Millisecond)

	svc.Stop()

	ok, err := c.Exists(ctx, searchCachePrefix+"b")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.Exists(ctx, "http:cache:/api/analytics/zero-results")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheInvalidationService_StopsWhenBusCloses(t *testing.T) {
	c, err := cache.NewMemoryAdapter(4)
	require.NoError(t, err)

	bus := newChanEventBus()
	svc := NewCacheInvalidationService(c, bus)
	require.NoError(t, svc.Start())

	close(bus.ch)
	svc.Stop()
}
