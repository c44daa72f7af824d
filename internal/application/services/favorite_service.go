package services

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

// FavoriteService stores favorites and keeps the session's favoritesList
// mirror in step with the store.
type FavoriteService struct {
	repo     repositories.FavoriteRepository
	sessions *SessionStore
}

func NewFavoriteService(repo repositories.FavoriteRepository, sessions *SessionStore) *FavoriteService {
	return &FavoriteService{repo: repo, sessions: sessions}
}

// Add reports whether the event was already a favorite.
func (s *FavoriteService) Add(ctx context.Context, userID string, event *entities.Event) (bool, error) {
	if event == nil || event.EventID == "" {
		return false, apperrors.NewValidationError("event is required")
	}

	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return false, wrapExternal("failed to list favorites", err)
	}
	for _, f := range list {
		if f.EventID == event.EventID {
			return true, nil
		}
	}

	fav := &entities.Favorite{UserID: userID, EventID: event.EventID, Title: event.Title}
	if err := s.repo.Add(ctx, fav); err != nil {
		return false, wrapExternal("failed to add favorite", err)
	}
	return false, s.mirror(ctx, userID, append(list, fav))
}

func (s *FavoriteService) Remove(ctx context.Context, userID, eventID string) error {
	if err := s.repo.Remove(ctx, userID, eventID); err != nil {
		return wrapExternal("failed to remove favorite", err)
	}
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return wrapExternal("failed to list favorites", err)
	}
	return s.mirror(ctx, userID, list)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]*entities.Favorite, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, wrapExternal("failed to list favorites", err)
	}
	return list, nil
}

func (s *FavoriteService) mirror(ctx context.Context, userID string, list []*entities.Favorite) error {
	if s.sessions == nil {
		return nil
	}
	refs := make([]entities.FavoriteRef, 0, len(list))
	for _, f := range list {
		refs = append(refs, entities.FavoriteRef{EventID: f.EventID, Title: f.Title})
	}
	return s.sessions.Save(ctx, userID, entities.NewSessionPatch().SetFavorites(refs))
}
