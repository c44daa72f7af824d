package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zatekoja/ticketassistant/internal/api/handlers"
	"github.com/zatekoja/ticketassistant/internal/api/middleware"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	conversationHandler *handlers.ConversationHandler
	favoriteHandler     *handlers.FavoriteHandler
	analyticsHandler    *handlers.AnalyticsHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	healthChecks    map[string]HealthCheck
}

// NewRouter creates a new router
func NewRouter(
	conversationHandler *handlers.ConversationHandler,
	favoriteHandler *handlers.FavoriteHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	healthChecks map[string]HealthCheck,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		conversationHandler: conversationHandler,
		favoriteHandler:     favoriteHandler,
		analyticsHandler:    analyticsHandler,
		cacheMiddleware:     cacheMiddleware,
		metrics:             metrics,
		healthChecks:        healthChecks,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.health)

	// Conversation endpoints
	r.mux.HandleFunc("POST /api/conversations/messages", r.conversationHandler.PostMessage)
	r.mux.HandleFunc("DELETE /api/conversations/{userId}/session", r.conversationHandler.ResetSession)

	// Favorites endpoints
	if r.favoriteHandler != nil {
		r.mux.HandleFunc("GET /api/users/{userId}/favorites", r.favoriteHandler.ListFavorites)
		r.mux.HandleFunc("POST /api/users/{userId}/favorites", r.favoriteHandler.AddFavorite)
		r.mux.HandleFunc("DELETE /api/users/{userId}/favorites/{eventId}", r.favoriteHandler.RemoveFavorite)
	}

	// Analytics endpoints
	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/zero-results", r.analyticsHandler.GetZeroResultQueries)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}

// health answers 200 when every registered dependency responds, 503 with the
// failing names otherwise.
func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	failing := map[string]string{}
	for name, check := range r.healthChecks {
		if err := check(ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write(healthBody("degraded", failing))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func healthBody(status string, failing map[string]string) []byte {
	data, err := json.Marshal(map[string]interface{}{
		"status":   status,
		"failures": failing,
	})
	if err != nil {
		return []byte(`{"status":"` + status + `"}`)
	}
	return data
}
