package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string][]*entities.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: make(map[string][]*entities.Message)}
}

func (r *MessageRepository) Create(_ context.Context, message *entities.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &c)
	return nil
}

func (r *MessageRepository) ListRecent(_ context.Context, conversationID string, limit int) ([]*entities.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]*entities.Message, len(all))
	copy(out, all)
	return out, nil
}
