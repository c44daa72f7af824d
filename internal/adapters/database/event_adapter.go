package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

const eventsTable = "events"

var eventColumns = []interface{}{
	"event_id", "title", "subtitle", "venue", "artists", "category",
	"dates", "url", "description", "price_info",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EventAdapter reads the listing corpus from PostgreSQL.
type EventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var (
	_ repositories.EventRepository = (*EventAdapter)(nil)
	_ repositories.EventWriter     = (*EventAdapter)(nil)
)

// NewEventAdapter creates a new event adapter
func NewEventAdapter(client *postgres.Client) *EventAdapter {
	return &EventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Find runs the text and facet predicates in SQL. first_date/last_date only
// narrow the date filter; the exact per-performance check happens after
// scanning.
func (a *EventAdapter) Find(ctx context.Context, q repositories.EventQuery) ([]*entities.Event, error) {
	var where []exp.Expression

	if len(q.IDs) > 0 {
		where = append(where, goqu.C("event_id").In(q.IDs))
	}
	if len(q.Categories) > 0 {
		lowered := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			lowered[i] = strings.ToLower(c)
		}
		where = append(where, goqu.Func("LOWER", goqu.C("category")).In(lowered))
	}

	dated := !q.From.IsZero() || !q.To.IsZero()
	from, to := q.From, q.To
	if dated {
		if to.IsZero() {
			to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		}
		where = append(where, goqu.C("last_date").Gte(from), goqu.C("first_date").Lte(to))
	}

	if len(q.Terms) > 0 {
		terms := termConditions(q)
		if len(terms) == 0 {
			return nil, nil
		}
		where = append(where, goqu.Or(terms...))
	}

	ds := a.db.From(eventsTable).Select(eventColumns...).
		Where(where...).
		Order(goqu.C("first_date").Asc().NullsLast(), goqu.C("event_id").Asc())
	if q.Limit > 0 && !dated {
		ds = ds.Limit(uint(q.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	events, err := a.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if dated {
		kept := events[:0]
		for _, e := range events {
			if e.HasDateIn(from, to) {
				kept = append(kept, e)
			}
		}
		events = kept
		if q.Limit > 0 && len(events) > q.Limit {
			events = events[:q.Limit]
		}
	}
	return events, nil
}

func termConditions(q repositories.EventQuery) []exp.Expression {
	fields := q.Fields
	if len(fields) == 0 {
		fields = []repositories.EventField{
			repositories.EventFieldTitle, repositories.EventFieldSubtitle,
			repositories.EventFieldArtists, repositories.EventFieldVenue,
			repositories.EventFieldDescription, repositories.EventFieldCategory,
		}
	}

	var out []exp.Expression
	for _, t := range q.Terms {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		for _, f := range fields {
			col := fieldColumn(f)
			if t.WholeWord {
				out = append(out, col.RegexpILike(`\y`+regexp.QuoteMeta(text)+`\y`))
			} else {
				out = append(out, col.ILike("%"+likeEscaper.Replace(text)+"%"))
			}
		}
	}
	return out
}

type likeableColumn interface {
	ILike(interface{}) exp.BooleanExpression
	RegexpILike(interface{}) exp.BooleanExpression
}

func fieldColumn(f repositories.EventField) likeableColumn {
	if f == repositories.EventFieldArtists {
		return goqu.L("array_to_string(artists, ' / ')")
	}
	return goqu.C(string(f))
}

// GetByIDs keeps the order of ids.
func (a *EventAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Event, error) {
	if len(ids) == 0 {
		return []*entities.Event{}, nil
	}

	query, args, err := a.db.From(eventsTable).Select(eventColumns...).
		Where(goqu.C("event_id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	events, err := a.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Event, len(events))
	for _, e := range events {
		byID[e.EventID] = e
	}
	out := make([]*entities.Event, 0, len(events))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *EventAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Event, error) {
	ds := a.db.From(eventsTable).Select(eventColumns...).Order(goqu.C("event_id").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args...)
}

// Upsert inserts events or overwrites the stored row with the same id.
func (a *EventAdapter) Upsert(ctx context.Context, events []*entities.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(events))
	for _, e := range events {
		record, err := eventRecord(e)
		if err != nil {
			return apperrors.NewInternalError("failed to encode event", err)
		}
		rows = append(rows, record)
	}

	update := goqu.Record{"updated_at": goqu.L("NOW()")}
	for _, col := range append(eventColumns[1:], "first_date", "last_date") {
		name := col.(string)
		update[name] = goqu.L("EXCLUDED." + name)
	}

	query, args, err := a.db.Insert(eventsTable).Rows(rows...).
		OnConflict(goqu.DoUpdate("event_id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert events", err)
	}
	return nil
}

func eventRecord(e *entities.Event) (goqu.Record, error) {
	dates, err := json.Marshal(e.Dates)
	if err != nil {
		return nil, err
	}

	var first, last sql.NullTime
	for _, d := range e.Dates {
		if !first.Valid || d.Date.Before(first.Time) {
			first = sql.NullTime{Time: d.Date, Valid: true}
		}
		if !last.Valid || d.Date.After(last.Time) {
			last = sql.NullTime{Time: d.Date, Valid: true}
		}
	}

	return goqu.Record{
		"event_id":    e.EventID,
		"title":       e.Title,
		"subtitle":    sql.NullString{String: e.Subtitle, Valid: e.Subtitle != ""},
		"venue":       e.Venue,
		"artists":     pq.Array(e.Artists),
		"category":    sql.NullString{String: e.Category, Valid: e.Category != ""},
		"dates":       string(dates),
		"url":         e.URL,
		"description": sql.NullString{String: e.Description, Valid: e.Description != ""},
		"price_info":  sql.NullString{String: e.PriceInfo, Valid: e.PriceInfo != ""},
		"first_date":  first,
		"last_date":   last,
	}, nil
}

func (a *EventAdapter) query(ctx context.Context, query string, args ...interface{}) ([]*entities.Event, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query events", err)
	}
	defer rows.Close()

	var events []*entities.Event
	for rows.Next() {
		e := &entities.Event{}
		var subtitle, category, description, priceInfo sql.NullString
		var dates []byte

		err := rows.Scan(
			&e.EventID,
			&e.Title,
			&subtitle,
			&e.Venue,
			pq.Array(&e.Artists),
			&category,
			&dates,
			&e.URL,
			&description,
			&priceInfo,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan event", err)
		}
		if len(dates) > 0 {
			if err := json.Unmarshal(dates, &e.Dates); err != nil {
				return nil, apperrors.NewInternalError("failed to decode event dates", err)
			}
		}

		e.Subtitle = subtitle.String
		e.Category = category.String
		e.Description = description.String
		e.PriceInfo = priceInfo.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read events", err)
	}

	return events, nil
}
