package repositories

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// SessionRepository persists one conversation session per user. All
// mutation goes through UpdateFields.
type SessionRepository interface {
	// Find returns the session or nil when the user has none.
	Find(ctx context.Context, userID string) (*entities.Session, error)
	Create(ctx context.Context, session *entities.Session) error
	// UpdateFields merges dotted-path updates; nil values clear.
	UpdateFields(ctx context.Context, userID string, updates entities.FieldUpdates) error
}
