package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

const (
	maxMessageRunes   = 500
	messageRateLimit  = 30
	messageRateWindow = time.Minute
)

// ConversationService answers one user turn.
type ConversationService interface {
	HandleMessage(ctx context.Context, userID, message, locale string) *entities.Reply
}

// SessionResetter clears a user's conversational context.
type SessionResetter interface {
	Clear(ctx context.Context, userID string) error
}

// ConversationHandler exposes the assistant over HTTP.
type ConversationHandler struct {
	service  ConversationService
	sessions SessionResetter
	limiter  *rateLimiter
}

// NewConversationHandler creates a conversation handler. cache may be nil, in
// which case rate limiting is per process.
func NewConversationHandler(service ConversationService, sessions SessionResetter, cache providers.CacheProvider) *ConversationHandler {
	return &ConversationHandler{
		service:  service,
		sessions: sessions,
		limiter:  newRateLimiter(cache, messageRateLimit, messageRateWindow),
	}
}

type messageRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

// PostMessage handles POST /api/conversations/messages
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.UserID = strings.TrimSpace(payload.UserID)
	if payload.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if utf8.RuneCountInString(payload.Message) > maxMessageRunes {
		respondWithError(w, http.StatusBadRequest, "message is too long")
		return
	}
	if payload.Locale != "" {
		if _, ok := entities.ParseLocale(payload.Locale); !ok {
			respondWithError(w, http.StatusBadRequest, "unsupported locale")
			return
		}
	}

	allowed, retryAfter := h.limiter.allow(r.Context(), "conversation:rate:"+payload.UserID)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reply := h.service.HandleMessage(r.Context(), payload.UserID, payload.Message, payload.Locale)
	respondWithJSON(w, http.StatusOK, reply)
}

// ResetSession handles DELETE /api/conversations/{userId}/session
func (h *ConversationHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user ID is required")
		return
	}

	if err := h.sessions.Clear(r.Context(), userID); err != nil {
		observability.UserLogger(r.Context(), userID).Error().Err(err).Msg("failed to reset session")
		respondWithAppError(w, err, "failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
