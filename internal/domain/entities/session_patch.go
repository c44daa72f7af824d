package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Dotted field paths understood by session repositories.
const (
	FieldState              = "metadata.state"
	FieldLastQuery          = "metadata.lastQuery"
	FieldLastSearchResults  = "metadata.lastSearchResults"
	FieldSelectedEvent      = "metadata.selectedEvent"
	FieldSelectedEventIndex = "metadata.selectedEventIndex"
	FieldLanguage           = "metadata.language"
	FieldFavoritesList      = "metadata.favoritesList"
	FieldLastActivity       = "metadata.lastActivity"
	FieldCreatedAt          = "createdAt"
)

// SessionFieldPaths lists every path in a stable order.
var SessionFieldPaths = []string{
	FieldState,
	FieldLastQuery,
	FieldLastSearchResults,
	FieldSelectedEvent,
	FieldSelectedEventIndex,
	FieldLanguage,
	FieldFavoritesList,
	FieldLastActivity,
	FieldCreatedAt,
}

// FieldUpdates maps a dotted path to its new value. A nil value clears the
// field; a path that is absent is left untouched.
type FieldUpdates map[string]any

// SessionPatch accumulates field updates for one save.
type SessionPatch struct {
	fields FieldUpdates
}

func NewSessionPatch() *SessionPatch {
	return &SessionPatch{fields: FieldUpdates{}}
}

func (p *SessionPatch) SetState(state SessionState) *SessionPatch {
	p.fields[FieldState] = state
	return p
}

func (p *SessionPatch) SetLastQuery(query string) *SessionPatch {
	p.fields[FieldLastQuery] = query
	return p
}

func (p *SessionPatch) ClearLastQuery() *SessionPatch {
	p.fields[FieldLastQuery] = nil
	return p
}

func (p *SessionPatch) SetSearchResults(events []*Event) *SessionPatch {
	if len(events) == 0 {
		p.fields[FieldLastSearchResults] = nil
		return p
	}
	p.fields[FieldLastSearchResults] = events
	return p
}

func (p *SessionPatch) ClearSearchResults() *SessionPatch {
	p.fields[FieldLastSearchResults] = nil
	return p
}

// SetSelectedEvent selects event at the 0-based index of the last results.
func (p *SessionPatch) SetSelectedEvent(event *Event, index int) *SessionPatch {
	if event == nil {
		return p.ClearSelectedEvent()
	}
	p.fields[FieldSelectedEvent] = event
	p.fields[FieldSelectedEventIndex] = index
	return p
}

func (p *SessionPatch) ClearSelectedEvent() *SessionPatch {
	p.fields[FieldSelectedEvent] = nil
	p.fields[FieldSelectedEventIndex] = nil
	return p
}

func (p *SessionPatch) SetLanguage(locale Locale) *SessionPatch {
	p.fields[FieldLanguage] = locale
	return p
}

func (p *SessionPatch) SetFavorites(favorites []FavoriteRef) *SessionPatch {
	if len(favorites) == 0 {
		p.fields[FieldFavoritesList] = nil
		return p
	}
	p.fields[FieldFavoritesList] = favorites
	return p
}

func (p *SessionPatch) SetLastActivity(t time.Time) *SessionPatch {
	p.fields[FieldLastActivity] = t
	return p
}

// Merge copies other's fields over p's.
func (p *SessionPatch) Merge(other *SessionPatch) *SessionPatch {
	if other == nil {
		return p
	}
	for k, v := range other.fields {
		p.fields[k] = v
	}
	return p
}

// Has reports whether the patch mentions path.
func (p *SessionPatch) Has(path string) bool {
	_, ok := p.fields[path]
	return ok
}

func (p *SessionPatch) IsEmpty() bool {
	return p == nil || len(p.fields) == 0
}

// Fields returns a copy of the accumulated updates.
func (p *SessionPatch) Fields() FieldUpdates {
	out := make(FieldUpdates, len(p.fields))
	for k, v := range p.fields {
		out[k] = v
	}
	return out
}

// SessionFields renders every populated field of s as updates, for creation.
func SessionFields(s *Session) FieldUpdates {
	f := FieldUpdates{
		FieldState:        s.State,
		FieldLanguage:     s.Context.Language,
		FieldCreatedAt:    s.CreatedAt,
		FieldLastActivity: s.LastActivity,
	}
	if s.Context.LastQuery != "" {
		f[FieldLastQuery] = s.Context.LastQuery
	}
	if len(s.Context.LastSearchResults) > 0 {
		f[FieldLastSearchResults] = s.Context.LastSearchResults
	}
	if s.Context.SelectedEvent != nil {
		f[FieldSelectedEvent] = s.Context.SelectedEvent
	}
	if s.Context.SelectedEventIndex != nil {
		f[FieldSelectedEventIndex] = *s.Context.SelectedEventIndex
	}
	if len(s.Context.FavoritesList) > 0 {
		f[FieldFavoritesList] = s.Context.FavoritesList
	}
	return f
}

// Apply merges updates into s.
func (s *Session) Apply(updates FieldUpdates) error {
	for path, value := range updates {
		if err := s.applyField(path, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) applyField(path string, value any) error {
	clear := value == nil
	var ok bool

	switch path {
	case FieldState:
		if clear {
			s.State = SessionStateIdle
			return nil
		}
		s.State, ok = value.(SessionState)
	case FieldLastQuery:
		if clear {
			s.Context.LastQuery = ""
			return nil
		}
		s.Context.LastQuery, ok = value.(string)
	case FieldLastSearchResults:
		if clear {
			s.Context.LastSearchResults = nil
			return nil
		}
		s.Context.LastSearchResults, ok = value.([]*Event)
	case FieldSelectedEvent:
		if clear {
			s.Context.SelectedEvent = nil
			return nil
		}
		s.Context.SelectedEvent, ok = value.(*Event)
	case FieldSelectedEventIndex:
		if clear {
			s.Context.SelectedEventIndex = nil
			return nil
		}
		var idx int
		if idx, ok = value.(int); ok {
			s.Context.SelectedEventIndex = &idx
		}
	case FieldLanguage:
		if clear {
			s.Context.Language = ""
			return nil
		}
		s.Context.Language, ok = value.(Locale)
	case FieldFavoritesList:
		if clear {
			s.Context.FavoritesList = nil
			return nil
		}
		s.Context.FavoritesList, ok = value.([]FavoriteRef)
	case FieldLastActivity:
		if clear {
			s.LastActivity = time.Time{}
			return nil
		}
		s.LastActivity, ok = value.(time.Time)
	case FieldCreatedAt:
		if clear {
			s.CreatedAt = time.Time{}
			return nil
		}
		s.CreatedAt, ok = value.(time.Time)
	default:
		return fmt.Errorf("unknown session field %q", path)
	}

	if !ok {
		return fmt.Errorf("session field %q: unexpected value type %T", path, value)
	}
	return nil
}

// DecodeField turns a stored JSON value back into the Go type Apply expects
// for path.
func DecodeField(path string, data []byte) (any, error) {
	var (
		v   any
		err error
	)
	switch path {
	case FieldState:
		var st SessionState
		err = json.Unmarshal(data, &st)
		v = st
	case FieldLastQuery:
		var q string
		err = json.Unmarshal(data, &q)
		v = q
	case FieldLastSearchResults:
		var events []*Event
		err = json.Unmarshal(data, &events)
		v = events
	case FieldSelectedEvent:
		var e Event
		err = json.Unmarshal(data, &e)
		v = &e
	case FieldSelectedEventIndex:
		var idx int
		err = json.Unmarshal(data, &idx)
		v = idx
	case FieldLanguage:
		var l Locale
		err = json.Unmarshal(data, &l)
		v = l
	case FieldFavoritesList:
		var favs []FavoriteRef
		err = json.Unmarshal(data, &favs)
		v = favs
	case FieldLastActivity, FieldCreatedAt:
		var t time.Time
		err = json.Unmarshal(data, &t)
		v = t
	default:
		return nil, fmt.Errorf("unknown session field %q", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode session field %q: %w", path, err)
	}
	return v, nil
}
