package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

type FavoriteRepository struct {
	mu        sync.RWMutex
	favorites map[string][]*entities.Favorite
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{favorites: make(map[string][]*entities.Favorite)}
}

func (r *FavoriteRepository) Add(_ context.Context, favorite *entities.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.favorites[favorite.UserID] {
		if f.EventID == favorite.EventID {
			return nil
		}
	}
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = time.Now()
	}
	c := *favorite
	r.favorites[favorite.UserID] = append(r.favorites[favorite.UserID], &c)
	return nil
}

func (r *FavoriteRepository) Remove(_ context.Context, userID, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.favorites[userID]
	for i, f := range list {
		if f.EventID == eventID {
			r.favorites[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("favorite not found")
}

func (r *FavoriteRepository) List(_ context.Context, userID string) ([]*entities.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Favorite, len(r.favorites[userID]))
	copy(out, r.favorites[userID])
	return out, nil
}
