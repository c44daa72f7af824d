package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

const (
	defaultZeroResultLimit = 50
	maxZeroResultLimit     = 500
)

// AnalyticsService defines the search analytics reads used by the handler.
type AnalyticsService interface {
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
}

func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetZeroResultQueries handles GET /api/analytics/zero-results
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := defaultZeroResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxZeroResultLimit)
	}

	events, err := h.service.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, err, "failed to load zero-result queries")
		return
	}
	if events == nil {
		events = []*entities.SearchEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}
