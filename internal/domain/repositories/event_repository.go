package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// EventField names a searchable text field of an event.
type EventField string

const (
	EventFieldArtists     EventField = "artists"
	EventFieldTitle       EventField = "title"
	EventFieldSubtitle    EventField = "subtitle"
	EventFieldDescription EventField = "description"
	EventFieldVenue       EventField = "venue"
	EventFieldCategory    EventField = "category"
)

// MatchTerm is one text predicate. WholeWord bounds Latin terms at word
// boundaries; otherwise it is a case-insensitive substring.
type MatchTerm struct {
	Text      string
	WholeWord bool
}

// EventQuery is the read surface the search engine needs. Terms match when
// any term hits any of Fields. Empty slices and zero times do not filter.
type EventQuery struct {
	Terms      []MatchTerm
	Fields     []EventField
	From       time.Time
	To         time.Time
	Categories []string
	IDs        []string
	Limit      int
}

// EventRepository is the read-only event corpus.
type EventRepository interface {
	Find(ctx context.Context, query EventQuery) ([]*entities.Event, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Event, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Event, error)
}

// EventWriter loads listings into a corpus. Only seeding tools write.
type EventWriter interface {
	Upsert(ctx context.Context, events []*entities.Event) error
}
