package entities

import (
	"strings"
	"time"
)

// SessionState is the conversation state of one user.
type SessionState string

const (
	SessionStateIdle          SessionState = "IDLE"
	SessionStateSearching     SessionState = "SEARCHING"
	SessionStateEventList     SessionState = "EVENT_LIST"
	SessionStateEventSelected SessionState = "EVENT_SELECTED"
	SessionStateFAQMode       SessionState = "FAQ_MODE"
)

// Valid reports whether s is a member of the closed state set.
func (s SessionState) Valid() bool {
	switch s {
	case SessionStateIdle, SessionStateSearching, SessionStateEventList,
		SessionStateEventSelected, SessionStateFAQMode:
		return true
	}
	return false
}

// Locale is a reply language.
type Locale string

const (
	LocaleZhTW Locale = "zh-TW"
	LocaleEn   Locale = "en"
)

// ParseLocale accepts loose spellings ("zh", "zh_tw", "en-US") and returns
// the supported locale they name.
func ParseLocale(s string) (Locale, bool) {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	switch {
	case v == "":
		return "", false
	case strings.HasPrefix(v, "zh"):
		return LocaleZhTW, true
	case strings.HasPrefix(v, "en"):
		return LocaleEn, true
	}
	return "", false
}

// IsChinese reports whether the locale is zh-TW.
func (l Locale) IsChinese() bool {
	return l == LocaleZhTW
}

// FavoriteRef is the session-side mirror of a stored favorite.
type FavoriteRef struct {
	EventID string `json:"eventId"`
	Title   string `json:"title"`
}

// SessionContext is the per-user conversational memory.
type SessionContext struct {
	LastQuery          string        `json:"lastQuery,omitempty"`
	LastSearchResults  []*Event      `json:"lastSearchResults,omitempty"`
	SelectedEvent      *Event        `json:"selectedEvent,omitempty"`
	SelectedEventIndex *int          `json:"selectedEventIndex,omitempty"`
	Language           Locale        `json:"language"`
	FavoritesList      []FavoriteRef `json:"favoritesList,omitempty"`
}

// Session is the single live conversation record of a user.
type Session struct {
	UserID       string         `json:"userId"`
	State        SessionState   `json:"state"`
	Context      SessionContext `json:"context"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActivity time.Time      `json:"lastActivity"`
}

// NewSession returns an IDLE session with an empty context.
func NewSession(userID string, locale Locale, now time.Time) *Session {
	return &Session{
		UserID:       userID,
		State:        SessionStateIdle,
		Context:      SessionContext{Language: locale},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// HasResults reports whether the last search left results in context.
func (s *Session) HasResults() bool {
	return len(s.Context.LastSearchResults) > 0
}

// ResultAt returns the i-th (0-based) event of the last search.
func (s *Session) ResultAt(i int) (*Event, bool) {
	if i < 0 || i >= len(s.Context.LastSearchResults) {
		return nil, false
	}
	return s.Context.LastSearchResults[i], true
}

// IsFavorite reports whether eventID is in the mirrored favorites list.
func (s *Session) IsFavorite(eventID string) bool {
	for _, f := range s.Context.FavoritesList {
		if f.EventID == eventID {
			return true
		}
	}
	return false
}
