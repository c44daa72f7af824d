package services

import (
	"context"
	"errors"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

// SessionStore is the only writer of session state. Every mutation is a
// field-level patch through SessionRepository.UpdateFields and stamps the
// last activity time.
type SessionStore struct {
	repo          repositories.SessionRepository
	defaultLocale entities.Locale
	now           func() time.Time
}

func NewSessionStore(repo repositories.SessionRepository, defaultLocale entities.Locale, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	if defaultLocale == "" {
		defaultLocale = entities.LocaleZhTW
	}
	return &SessionStore{repo: repo, defaultLocale: defaultLocale, now: now}
}

// Load returns the user's session, creating an IDLE one when absent.
func (s *SessionStore) Load(ctx context.Context, userID string) (*entities.Session, error) {
	session, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, wrapExternal("failed to load session", err)
	}
	if session != nil {
		if session.Context.Language == "" {
			session.Context.Language = s.defaultLocale
		}
		return session, nil
	}

	session = entities.NewSession(userID, s.defaultLocale, s.now())
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, wrapExternal("failed to create session", err)
	}
	return session, nil
}

// Save applies patch. Fields the patch does not mention are untouched.
func (s *SessionStore) Save(ctx context.Context, userID string, patch *entities.SessionPatch) error {
	if patch == nil {
		patch = entities.NewSessionPatch()
	}
	updates := patch.Fields()
	updates[entities.FieldLastActivity] = s.now()
	if err := s.repo.UpdateFields(ctx, userID, updates); err != nil {
		return wrapExternal("failed to save session", err)
	}
	return nil
}

// ClearPatch resets state and conversational context. Language and the
// favorites mirror are user preferences and survive.
func ClearPatch() *entities.SessionPatch {
	return entities.NewSessionPatch().
		SetState(entities.SessionStateIdle).
		ClearLastQuery().
		ClearSearchResults().
		ClearSelectedEvent()
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	return s.Save(ctx, userID, ClearPatch())
}

// SearchContextPatch records the outcome of a search: one result selects
// it, several open a list with the first pre-selected, none returns to IDLE.
func SearchContextPatch(query string, events []*entities.Event) *entities.SessionPatch {
	patch := entities.NewSessionPatch()
	switch {
	case len(events) == 0:
		return patch.Merge(ClearPatch()).SetLastQuery(query)
	case len(events) == 1:
		patch.SetState(entities.SessionStateEventSelected)
	default:
		patch.SetState(entities.SessionStateEventList)
	}
	return patch.
		SetLastQuery(query).
		SetSearchResults(events).
		SetSelectedEvent(events[0], 0)
}

func (s *SessionStore) SaveSearchContext(ctx context.Context, userID, query string, events []*entities.Event) error {
	return s.Save(ctx, userID, SearchContextPatch(query, events))
}

// wrapExternal keeps typed errors and marks everything else as a
// collaborator failure.
func wrapExternal(msg string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewExternalError(msg, err)
}
