package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/api/handlers"
	"github.com/zatekoja/ticketassistant/internal/api/routes"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

type echoConversation struct{}

func (echoConversation) HandleMessage(ctx context.Context, userID, message, locale string) *entities.Reply {
	return &entities.Reply{ReplyText: message}
}

func newTestRouter(checks map[string]routes.HealthCheck) http.Handler {
	sessions := services.NewSessionStore(memory.NewSessionRepository(), entities.LocaleZhTW, nil)
	favorites := services.NewFavoriteService(memory.NewFavoriteRepository(), sessions)
	analytics := services.NewSearchAnalyticsService(memory.NewSearchAnalyticsRepository())

	r := routes.NewRouter(
		handlers.NewConversationHandler(echoConversation{}, sessions, nil),
		handlers.NewFavoriteHandler(favorites, memory.NewEventRepository()),
		handlers.NewAnalyticsHandler(analytics),
		nil,
		nil,
		checks,
	)
	return r.SetupRoutes()
}

func TestRouter_Routes(t *testing.T) {
	handler := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"POST", "/api/conversations/messages", `{"userId":"u1","message":"hi"}`, http.StatusOK},
		{"DELETE", "/api/conversations/u1/session", "", http.StatusNoContent},
		{"GET", "/api/users/u1/favorites", "", http.StatusOK},
		{"DELETE", "/api/users/u1/favorites/nope", "", http.StatusNotFound},
		{"GET", "/api/analytics/zero-results", "", http.StatusOK},
		{"GET", "/api/conversations/messages", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRouter_HealthReportsFailingDependencies(t *testing.T) {
	handler := newTestRouter(map[string]routes.HealthCheck{
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
		"postgres": func(ctx context.Context) error { return nil },
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","failures":{"redis":"connection refused"}}`, w.Body.String())
}
