package memory

import (
	"context"
	"sync"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// SessionRepository stores sessions by user id. Sessions are copied on the
// way in and out so callers never share state with the store.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*entities.Session)}
}

func (r *SessionRepository) Find(_ context.Context, userID string) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (r *SessionRepository) Create(_ context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.UserID] = copySession(session)
	return nil
}

// UpdateFields merges updates, creating a bare session for an unknown user
// the way a hash store would.
func (r *SessionRepository) UpdateFields(_ context.Context, userID string, updates entities.FieldUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = &entities.Session{UserID: userID, State: entities.SessionStateIdle}
	} else {
		s = copySession(s)
	}
	if err := s.Apply(updates); err != nil {
		return err
	}
	r.sessions[userID] = s
	return nil
}

func copySession(s *entities.Session) *entities.Session {
	c := *s
	ctx := s.Context
	if ctx.LastSearchResults != nil {
		ctx.LastSearchResults = append([]*entities.Event(nil), ctx.LastSearchResults...)
	}
	if ctx.SelectedEventIndex != nil {
		idx := *ctx.SelectedEventIndex
		ctx.SelectedEventIndex = &idx
	}
	if ctx.FavoritesList != nil {
		ctx.FavoritesList = append([]entities.FavoriteRef(nil), ctx.FavoritesList...)
	}
	c.Context = ctx
	return &c
}
