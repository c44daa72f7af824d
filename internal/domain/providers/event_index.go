package providers

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// EventIndex is an optional full-text index over the event corpus.
type EventIndex interface {
	// Search returns matching event ids, best first.
	Search(ctx context.Context, text string, limit int) ([]string, error)
	Index(ctx context.Context, events []*entities.Event) error
}
