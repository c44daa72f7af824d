package repositories

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// MessageRepository is the conversation log.
type MessageRepository interface {
	Create(ctx context.Context, message *entities.Message) error
	// ListRecent returns up to limit messages, oldest first.
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*entities.Message, error)
}
