package repositories

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// FavoriteRepository stores bookmarked events per user.
type FavoriteRepository interface {
	// Add is idempotent for the same user and event.
	Add(ctx context.Context, favorite *entities.Favorite) error
	Remove(ctx context.Context, userID, eventID string) error
	List(ctx context.Context, userID string) ([]*entities.Favorite, error)
}
