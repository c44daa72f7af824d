package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/api/middleware"
)

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1}`))
	})
}

func TestCacheMiddleware_CachesConfiguredRoutes(t *testing.T) {
	store, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	calls := 0
	handler := middleware.NewCacheMiddleware(store, nil, nil).Middleware(countingHandler(&calls))

	for _, want := range []string{"MISS", "HIT"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/analytics/zero-results", nil))
		assert.Equal(t, want, w.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"count":1}`, w.Body.String())
	}
	assert.Equal(t, 1, calls)
}

func TestCacheMiddleware_SkipsConversationRoutes(t *testing.T) {
	store, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	calls := 0
	handler := middleware.NewCacheMiddleware(store, nil, nil).Middleware(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/u1/favorites", nil))
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestResponseOptimization(t *testing.T) {
	calls := 0
	handler := middleware.ResponseOptimization(countingHandler(&calls))

	req := httptest.NewRequest("POST", "/api/conversations/messages", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1}`, string(body))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	calls := 0
	handler := middleware.CORSMiddleware(countingHandler(&calls))

	req := httptest.NewRequest("OPTIONS", "/api/users/u1/favorites/jay-2025", nil)
	req.Header.Set("Origin", "https://tickets.example.com")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.NotContains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, 0, calls)
}

func TestCORSMiddleware_RestrictedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://tickets.example.com/, https://m.tickets.example.com")
	calls := 0
	handler := middleware.CORSMiddleware(countingHandler(&calls))

	req := httptest.NewRequest("POST", "/api/conversations/messages", nil)
	req.Header.Set("Origin", "https://m.tickets.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://m.tickets.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")

	req = httptest.NewRequest("POST", "/api/conversations/messages", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 2, calls)
}

func TestRouteLabel_CollapsesIDs(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/api/conversations/messages", "/api/conversations/messages"},
		{"DELETE", "/api/conversations/user-42/session", "/api/conversations/{userId}/session"},
		{"GET", "/api/users/user-42/favorites", "/api/users/{userId}/favorites"},
		{"POST", "/api/users/user-42/favorites/", "/api/users/{userId}/favorites"},
		{"DELETE", "/api/users/user-42/favorites/jay-2025", "/api/users/{userId}/favorites/{eventId}"},
		{"GET", "/api/analytics/zero-results", "/api/analytics/zero-results"},
		{"GET", "/health", "/health"},
		{"GET", "/wp-admin/setup.php", "unmatched"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, middleware.RouteLabel(httptest.NewRequest(tt.method, tt.path, nil)))
		})
	}

	req := httptest.NewRequest("DELETE", "/api/users/u1/favorites/e1", nil)
	req.Pattern = "DELETE /api/users/{userId}/favorites/{eventId}"
	assert.Equal(t, "/api/users/{userId}/favorites/{eventId}", middleware.RouteLabel(req))
}

func TestObservabilityMiddleware_PassesThrough(t *testing.T) {
	calls := 0
	handler := middleware.ObservabilityMiddleware(nil)(countingHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/users/u1/favorites", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}
