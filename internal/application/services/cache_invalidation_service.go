package services

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached search results whenever the corpus
// changes, so a reindex is visible before searchCacheTTL runs out.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for corpus events.
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCorpusUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to corpus updates: %w", err)
	}

	go s.processEvents(eventChan)
	observability.GetLogger().Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops listening and waits for the in-flight event to finish.
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.CorpusEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event != nil {
				s.handleEvent(event)
			}
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.CorpusEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Str("source", event.Source).
		Logger()

	n, err := s.InvalidateSearchCaches(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate search cache")
		return
	}
	logger.Info().Int("keys", n).Int("events", event.Count).Msg("invalidated search cache after corpus change")
}

// InvalidateSearchCaches removes every cached search result.
func (s *CacheInvalidationService) InvalidateSearchCaches(ctx context.Context) (int, error) {
	n, err := s.cache.DeletePrefix(ctx, searchCachePrefix)
	if err != nil {
		return n, fmt.Errorf("failed to invalidate prefix %s: %w", searchCachePrefix, err)
	}
	return n, nil
}
