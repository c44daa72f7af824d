package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

// MessageAdapter implements MessageRepository
type MessageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMessageAdapter creates a new message adapter
func NewMessageAdapter(client *postgres.Client) repositories.MessageRepository {
	return &MessageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create appends one message to the conversation log
func (a *MessageAdapter) Create(ctx context.Context, message *entities.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	metadata := []byte("{}")
	if len(message.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(message.Metadata); err != nil {
			return apperrors.NewInternalError("failed to encode message metadata", err)
		}
	}

	query, args, err := a.db.Insert("messages").Rows(goqu.Record{
		"id":              message.ID,
		"conversation_id": message.ConversationID,
		"role":            string(message.Role),
		"content":         message.Content,
		"metadata":        string(metadata),
		"created_at":      message.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewExternalError("failed to create message", err)
	}
	return nil
}

// ListRecent returns the newest limit messages, oldest first
func (a *MessageAdapter) ListRecent(ctx context.Context, conversationID string, limit int) ([]*entities.Message, error) {
	if limit <= 0 {
		return []*entities.Message{}, nil
	}

	query, args, err := a.db.From("messages").
		Select("id", "conversation_id", "role", "content", "metadata", "created_at").
		Where(goqu.C("conversation_id").Eq(conversationID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to list messages", err)
	}
	defer rows.Close()

	var messages []*entities.Message
	for rows.Next() {
		m := &entities.Message{}
		var role string
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan message", err)
		}
		m.Role = entities.MessageRole(role)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, apperrors.NewInternalError("failed to decode message metadata", err)
			}
		}
		messages = append(messages, m)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
