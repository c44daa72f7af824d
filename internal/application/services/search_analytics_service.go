package services

import (
	"context"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

const analyticsWriteTimeout = 5 * time.Second

type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
}

func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch logs one executed search without blocking the turn.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, userID string, q *entities.ParsedQuery, resultCount int, latency time.Duration) {
	if s == nil || s.repo == nil || q == nil {
		return
	}
	event := &entities.SearchEvent{
		UserID:      userID,
		Query:       q.Raw,
		QueryType:   q.QueryType,
		ResultCount: resultCount,
		LatencyMs:   int(latency.Milliseconds()),
	}
	logger := observability.LoggerFromContext(ctx)

	go func() {
		// The request context may be cancelled by the time this runs.
		bgCtx, cancel := context.WithTimeout(context.Background(), analyticsWriteTimeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			logger.Warn().Err(err).Str("query", event.Query).Msg("failed to log search event")
		}
	}()
}

func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultQueries(ctx, limit)
}
