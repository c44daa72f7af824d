package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionApply_OverwriteClearAndUntouched(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("U1", LocaleZhTW, now)
	s.Context.LastQuery = "周杰倫"
	s.Context.FavoritesList = []FavoriteRef{{EventID: "e9", Title: "Fav"}}

	event := &Event{EventID: "e1", Title: "Spring Recital"}
	patch := NewSessionPatch().
		SetState(SessionStateEventSelected).
		SetSearchResults([]*Event{event}).
		SetSelectedEvent(event, 0).
		ClearLastQuery()

	require.NoError(t, s.Apply(patch.Fields()))

	assert.Equal(t, SessionStateEventSelected, s.State)
	assert.Equal(t, event, s.Context.SelectedEvent)
	require.NotNil(t, s.Context.SelectedEventIndex)
	assert.Equal(t, 0, *s.Context.SelectedEventIndex)
	assert.Empty(t, s.Context.LastQuery)
	assert.Len(t, s.Context.FavoritesList, 1, "fields not in the patch stay untouched")
	assert.Equal(t, LocaleZhTW, s.Context.Language)
}

func TestSessionApply_RejectsUnknownPathAndWrongType(t *testing.T) {
	s := NewSession("U1", LocaleEn, time.Now())

	assert.Error(t, s.Apply(FieldUpdates{"metadata.bogus": "x"}))
	assert.Error(t, s.Apply(FieldUpdates{FieldState: "IDLE"}))
}

func TestSessionPatch_EmptyResultsClear(t *testing.T) {
	patch := NewSessionPatch().SetSearchResults(nil).SetFavorites(nil)

	fields := patch.Fields()
	v, ok := fields[FieldLastSearchResults]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.True(t, patch.Has(FieldFavoritesList))
	assert.False(t, patch.Has(FieldState))
}

func TestDecodeField_RoundTripThroughJSON(t *testing.T) {
	event := &Event{EventID: "e1", Title: "Lang Lang Piano Recital", Artists: []string{"Lang Lang"}}
	s := NewSession("U1", LocaleEn, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s.State = SessionStateEventList
	s.Context.LastSearchResults = []*Event{event}
	s.Context.SelectedEvent = event
	idx := 0
	s.Context.SelectedEventIndex = &idx

	restored := &Session{UserID: "U1"}
	for path, value := range SessionFields(s) {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		decoded, err := DecodeField(path, raw)
		require.NoError(t, err)
		require.NoError(t, restored.Apply(FieldUpdates{path: decoded}))
	}

	assert.Equal(t, s.State, restored.State)
	assert.Equal(t, s.Context.Language, restored.Context.Language)
	assert.Equal(t, event.Title, restored.Context.SelectedEvent.Title)
	assert.Len(t, restored.Context.LastSearchResults, 1)
	assert.True(t, s.CreatedAt.Equal(restored.CreatedAt))
}

func TestParseLocale(t *testing.T) {
	tests := map[string]Locale{"zh": LocaleZhTW, "zh_TW": LocaleZhTW, "en-US": LocaleEn, "EN": LocaleEn}
	for in, want := range tests {
		got, ok := ParseLocale(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLocale("fr")
	assert.False(t, ok)
}

func TestEventDates(t *testing.T) {
	d1 := time.Date(2025, 5, 2, 19, 30, 0, 0, time.UTC)
	d2 := time.Date(2025, 5, 1, 19, 30, 0, 0, time.UTC)
	e := &Event{Dates: []EventDate{{Date: d1}, {Date: d2}}}

	first, ok := e.FirstDate()
	assert.True(t, ok)
	assert.Equal(t, d2, first)
	assert.True(t, e.HasDateIn(d1.Add(-time.Hour), d1.Add(time.Hour)))
	assert.False(t, e.HasDateIn(d1.Add(time.Hour), d1.Add(2*time.Hour)))
}
