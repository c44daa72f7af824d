package providers

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// EventChannelCorpusUpdates carries every corpus change.
const EventChannelCorpusUpdates = "ticket:corpus:updates"

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CorpusEvent) error

	// Subscribe returns a channel that is closed when ctx ends or the bus closes.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CorpusEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}
