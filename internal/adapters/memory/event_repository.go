// Package memory holds in-process repositories for tests, the dev CLI and
// deployments without databases.
package memory

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

var allTextFields = []repositories.EventField{
	repositories.EventFieldTitle,
	repositories.EventFieldSubtitle,
	repositories.EventFieldArtists,
	repositories.EventFieldVenue,
	repositories.EventFieldDescription,
	repositories.EventFieldCategory,
}

// farFuture closes a date filter that only sets From.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// EventRepository keeps the corpus in insertion order.
type EventRepository struct {
	mu     sync.RWMutex
	events []*entities.Event
	byID   map[string]int
}

func NewEventRepository(events ...*entities.Event) *EventRepository {
	r := &EventRepository{byID: make(map[string]int)}
	r.put(events)
	return r
}

// Upsert replaces events with the same id and appends new ones.
func (r *EventRepository) Upsert(_ context.Context, events []*entities.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(events)
	return nil
}

func (r *EventRepository) put(events []*entities.Event) {
	for _, e := range events {
		if e == nil || e.EventID == "" {
			continue
		}
		if i, ok := r.byID[e.EventID]; ok {
			r.events[i] = e
			continue
		}
		r.byID[e.EventID] = len(r.events)
		r.events = append(r.events, e)
	}
}

func (r *EventRepository) Find(_ context.Context, q repositories.EventQuery) ([]*entities.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := compileTerms(q.Terms)
	fields := q.Fields
	if len(fields) == 0 {
		fields = allTextFields
	}

	var out []*entities.Event
	for _, e := range r.events {
		if !matchesQuery(e, q, patterns, fields) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (r *EventRepository) GetByIDs(_ context.Context, ids []string) ([]*entities.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Event, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.byID[id]; ok {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

func (r *EventRepository) List(_ context.Context, limit, offset int) ([]*entities.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.events) {
		return nil, nil
	}
	end := len(r.events)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*entities.Event, end-offset)
	copy(out, r.events[offset:end])
	return out, nil
}

type termPattern struct {
	text string
	re   *regexp.Regexp
}

func compileTerms(terms []repositories.MatchTerm) []termPattern {
	out := make([]termPattern, 0, len(terms))
	for _, t := range terms {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		p := termPattern{text: text}
		if t.WholeWord {
			p.re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(text) + `\b`)
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(e *entities.Event, q repositories.EventQuery, patterns []termPattern, fields []repositories.EventField) bool {
	if len(q.IDs) > 0 && !containsString(q.IDs, e.EventID) {
		return false
	}
	if len(q.Categories) > 0 && !containsString(q.Categories, e.Category) {
		return false
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		from, to := q.From, q.To
		if to.IsZero() {
			to = farFuture
		}
		if !e.HasDateIn(from, to) {
			return false
		}
	}
	if len(patterns) == 0 {
		return len(q.Terms) == 0
	}
	for _, f := range fields {
		for _, text := range fieldText(e, f) {
			for _, p := range patterns {
				if p.re != nil && p.re.MatchString(text) {
					return true
				}
				if p.re == nil && utils.ContainsFold(text, p.text) {
					return true
				}
			}
		}
	}
	return false
}

func fieldText(e *entities.Event, f repositories.EventField) []string {
	switch f {
	case repositories.EventFieldArtists:
		return e.Artists
	case repositories.EventFieldTitle:
		return []string{e.Title}
	case repositories.EventFieldSubtitle:
		return []string{e.Subtitle}
	case repositories.EventFieldDescription:
		return []string{e.Description}
	case repositories.EventFieldVenue:
		return []string{e.Venue}
	case repositories.EventFieldCategory:
		return []string{e.Category}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
