package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

func TestBuildEventTags(t *testing.T) {
	event := &entities.Event{
		Artists:  []string{" Lang Lang ", "NSO", "lang lang"},
		Venue:    "National Concert Hall",
		Category: "Classical",
	}

	assert.Equal(t, []string{"lang lang", "nso", "national concert hall", "classical"}, buildEventTags(event))
}

func TestBuildEventTagsNil(t *testing.T) {
	assert.Nil(t, buildEventTags(nil))
}

func TestBuildEventDocument(t *testing.T) {
	show := time.Date(2025, 5, 1, 19, 30, 0, 0, time.UTC)
	doc := buildEventDocument(&entities.Event{
		EventID: "e1",
		Title:   "春之祭",
		Venue:   "國家音樂廳",
		Dates:   []entities.EventDate{{Date: show.Add(24 * time.Hour)}, {Date: show}},
	})

	assert.Equal(t, "e1", doc["id"])
	assert.Equal(t, show.Unix(), doc["first_date"])
	assert.NotContains(t, doc, "subtitle")
	assert.NotContains(t, doc, "artists")
	assert.Equal(t, []string{"國家音樂廳"}, doc["tags"])
}

func TestBuildEventDocumentUndated(t *testing.T) {
	doc := buildEventDocument(&entities.Event{EventID: "e2", Title: "TBA"})
	assert.Equal(t, int64(0), doc["first_date"])
}
