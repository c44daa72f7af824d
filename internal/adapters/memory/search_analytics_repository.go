package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

type SearchAnalyticsRepository struct {
	mu     sync.RWMutex
	events []*entities.SearchEvent
}

func NewSearchAnalyticsRepository() *SearchAnalyticsRepository {
	return &SearchAnalyticsRepository{}
}

func (r *SearchAnalyticsRepository) LogEvent(_ context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c := *event
	r.events = append(r.events, &c)
	return nil
}

// GetZeroResultQueries returns the newest zero-result searches first.
func (r *SearchAnalyticsRepository) GetZeroResultQueries(_ context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.SearchEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].ResultCount == 0 {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}
