package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/api/handlers"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

type stubConversationService struct {
	calls []string
}

func (s *stubConversationService) HandleMessage(ctx context.Context, userID, message, locale string) *entities.Reply {
	s.calls = append(s.calls, userID+"|"+message+"|"+locale)
	return &entities.Reply{
		ReplyText:  "echo: " + message,
		QuickReply: &entities.SuggestedReplies{Items: []entities.QuickReplyItem{{Label: "menu", Text: "主選單"}}},
	}
}

type stubSessionResetter struct {
	cleared []string
	err     error
}

func (s *stubSessionResetter) Clear(ctx context.Context, userID string) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = append(s.cleared, userID)
	return nil
}

func postMessage(h *handlers.ConversationHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/conversations/messages", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.PostMessage(w, req)
	return w
}

func TestConversationHandler_PostMessage(t *testing.T) {
	service := &stubConversationService{}
	handler := handlers.NewConversationHandler(service, &stubSessionResetter{}, nil)

	w := postMessage(handler, `{"userId":"u1","message":"周杰倫","locale":"zh-TW"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"u1|周杰倫|zh-TW"}, service.calls)

	var reply entities.Reply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	assert.Equal(t, "echo: 周杰倫", reply.ReplyText)
	require.NotNil(t, reply.QuickReply)
	assert.Equal(t, "主選單", reply.QuickReply.Items[0].Text)
}

func TestConversationHandler_PostMessage_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"userId":`},
		{"missing user", `{"message":"hi"}`},
		{"unsupported locale", `{"userId":"u1","message":"hi","locale":"fr"}`},
		{"too long", `{"userId":"u1","message":"` + strings.Repeat("演", 501) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubConversationService{}
			handler := handlers.NewConversationHandler(service, &stubSessionResetter{}, nil)

			w := postMessage(handler, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, service.calls)
		})
	}
}

func TestConversationHandler_PostMessage_RateLimit(t *testing.T) {
	store, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	handler := handlers.NewConversationHandler(&stubConversationService{}, &stubSessionResetter{}, store)

	for i := 0; i < 30; i++ {
		w := postMessage(handler, `{"userId":"u1","message":"hi"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postMessage(handler, `{"userId":"u1","message":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = postMessage(handler, `{"userId":"u2","message":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConversationHandler_ResetSession(t *testing.T) {
	sessions := &stubSessionResetter{}
	handler := handlers.NewConversationHandler(&stubConversationService{}, sessions, nil)

	req := httptest.NewRequest("DELETE", "/api/conversations/u1/session", nil)
	req.SetPathValue("userId", "u1")
	w := httptest.NewRecorder()
	handler.ResetSession(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"u1"}, sessions.cleared)
}

func TestConversationHandler_ResetSession_StoreDown(t *testing.T) {
	sessions := &stubSessionResetter{err: apperrors.NewExternalError("failed to save session", errors.New("dial tcp"))}
	handler := handlers.NewConversationHandler(&stubConversationService{}, sessions, nil)

	req := httptest.NewRequest("DELETE", "/api/conversations/u1/session", nil)
	req.SetPathValue("userId", "u1")
	w := httptest.NewRecorder()
	handler.ResetSession(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "failed to reset session", response["error"])
}
