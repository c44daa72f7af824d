package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"event_id", "title", "subtitle", "venue", "artists", "category",
		"dates", "url", "description", "price_info",
	})
}

func TestEventAdapter_FindBuildsWordBoundedTerms(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	mock.ExpectQuery(`SELECT .* FROM "events" WHERE .*array_to_string\(artists, ' / '\) ~\* '\\yLang Lang\\y'.*"title" ~\* '\\yLang Lang\\y'.*LIMIT 5`).
		WillReturnRows(eventRows().AddRow(
			"e1", "Lang Lang Piano Recital", nil, "National Concert Hall", "{Lang Lang}", "classical",
			[]byte(`[{"date":"2025-05-01T19:30:00+08:00"}]`), "https://tickets.example/e1", nil, "NT$1,200",
		))

	events, err := adapter.Find(context.Background(), repositories.EventQuery{
		Terms:  []repositories.MatchTerm{{Text: "Lang Lang", WholeWord: true}},
		Fields: []repositories.EventField{repositories.EventFieldArtists, repositories.EventFieldTitle},
		Limit:  5,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "e1", e.EventID)
	assert.Equal(t, []string{"Lang Lang"}, e.Artists)
	assert.Equal(t, "classical", e.Category)
	assert.Empty(t, e.Subtitle)
	assert.Equal(t, "NT$1,200", e.PriceInfo)
	require.Len(t, e.Dates, 1)
	assert.Equal(t, 2025, e.Dates[0].Date.Year())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventAdapter_FindEscapesLikeWildcards(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	mock.ExpectQuery(`"title" ILIKE '%100\\%%'`).WillReturnRows(eventRows())

	events, err := adapter.Find(context.Background(), repositories.EventQuery{
		Terms:  []repositories.MatchTerm{{Text: "100%"}},
		Fields: []repositories.EventField{repositories.EventFieldTitle},
	})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventAdapter_FindBlankTermsMatchNothing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	events, err := adapter.Find(context.Background(), repositories.EventQuery{
		Terms: []repositories.MatchTerm{{Text: "  "}},
	})
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventAdapter_FindFiltersPerformanceDates(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	// Both rows overlap the window on first/last date, only one plays in it.
	mock.ExpectQuery(`"last_date" >= .*"first_date" <= `).
		WillReturnRows(eventRows().
			AddRow("in", "In Window", nil, "Hall", "{}", nil,
				[]byte(`[{"date":"2025-03-15T19:00:00Z"}]`), "", nil, nil).
			AddRow("gap", "Gap", nil, "Hall", "{}", nil,
				[]byte(`[{"date":"2025-03-01T19:00:00Z"},{"date":"2025-03-30T19:00:00Z"}]`), "", nil, nil))

	from := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC)
	events, err := adapter.Find(context.Background(), repositories.EventQuery{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "in", events[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventAdapter_GetByIDsKeepsOrder(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	mock.ExpectQuery(`"event_id" IN \('b', 'a'\)`).
		WillReturnRows(eventRows().
			AddRow("a", "A", nil, "", "{}", nil, nil, "", nil, nil).
			AddRow("b", "B", nil, "", "{}", nil, nil, "", nil, nil))

	events, err := adapter.GetByIDs(context.Background(), []string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].EventID)
	assert.Equal(t, "a", events[1].EventID)
}

func TestEventAdapter_QueryFailureIsExternal(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	mock.ExpectQuery(`FROM "events"`).WillReturnError(sql.ErrConnDone)

	_, err := adapter.List(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestEventAdapter_Upsert(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewEventAdapter(client)

	mock.ExpectExec(`INSERT INTO "events" .* ON CONFLICT \(event_id\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), []*entities.Event{{
		EventID: "e1",
		Title:   "Spring Recital",
		Artists: []string{"Lang Lang"},
		Dates:   []entities.EventDate{{Date: time.Date(2025, 5, 1, 19, 30, 0, 0, time.UTC)}},
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
