package entities

import (
	"time"

	"github.com/google/uuid"
)

// CorpusEventType says how the event corpus changed.
type CorpusEventType string

const (
	CorpusEventUpserted  CorpusEventType = "upserted"
	CorpusEventReindexed CorpusEventType = "reindexed"
)

// CorpusEvent announces a change to the stored events so that readers can
// drop derived state such as cached search results.
type CorpusEvent struct {
	ID        string          `json:"id"`
	Type      CorpusEventType `json:"type"`
	Source    string          `json:"source"`
	EventIDs  []string        `json:"event_ids,omitempty"`
	Count     int             `json:"count"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewCorpusEvent(eventType CorpusEventType, source string, count int, eventIDs ...string) *CorpusEvent {
	return &CorpusEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		EventIDs:  eventIDs,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}
