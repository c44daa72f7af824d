package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// FavoriteService defines the favorite operations used by the handler.
type FavoriteService interface {
	Add(ctx context.Context, userID string, event *entities.Event) (bool, error)
	Remove(ctx context.Context, userID, eventID string) error
	List(ctx context.Context, userID string) ([]*entities.Favorite, error)
}

// EventLookup resolves event ids against the corpus.
type EventLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Event, error)
}

type FavoriteHandler struct {
	service FavoriteService
	events  EventLookup
}

func NewFavoriteHandler(service FavoriteService, events EventLookup) *FavoriteHandler {
	return &FavoriteHandler{service: service, events: events}
}

// ListFavorites handles GET /api/users/{userId}/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	favorites, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err, "failed to list favorites")
		return
	}
	if favorites == nil {
		favorites = []*entities.Favorite{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": favorites,
		"count":     len(favorites),
	})
}

type addFavoriteRequest struct {
	EventID string `json:"eventId"`
}

// AddFavorite handles POST /api/users/{userId}/favorites
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	var payload addFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	payload.EventID = strings.TrimSpace(payload.EventID)
	if payload.EventID == "" {
		respondWithError(w, http.StatusBadRequest, "eventId is required")
		return
	}

	found, err := h.events.GetByIDs(r.Context(), []string{payload.EventID})
	if err != nil {
		respondWithAppError(w, err, "failed to look up event")
		return
	}
	if len(found) == 0 {
		respondWithError(w, http.StatusNotFound, "event not found")
		return
	}

	already, err := h.service.Add(r.Context(), userID, found[0])
	if err != nil {
		respondWithAppError(w, err, "failed to add favorite")
		return
	}

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	respondWithJSON(w, status, map[string]interface{}{
		"eventId": found[0].EventID,
		"title":   found[0].Title,
		"already": already,
	})
}

// RemoveFavorite handles DELETE /api/users/{userId}/favorites/{eventId}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	eventID := r.PathValue("eventId")
	if userID == "" || eventID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID and event ID are required")
		return
	}

	if err := h.service.Remove(r.Context(), userID, eventID); err != nil {
		respondWithAppError(w, err, "failed to remove favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
