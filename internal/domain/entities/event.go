package entities

import "time"

// EventDate is one performance date of an event.
type EventDate struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label,omitempty"`
}

// Event is an immutable snapshot of one show listing.
type Event struct {
	EventID     string      `json:"eventId" db:"event_id"`
	Title       string      `json:"title" db:"title"`
	Subtitle    string      `json:"subtitle,omitempty" db:"subtitle"`
	Venue       string      `json:"venue" db:"venue"`
	Artists     []string    `json:"artists" db:"artists"`
	Category    string      `json:"category,omitempty" db:"category"`
	Dates       []EventDate `json:"dates" db:"dates"`
	URL         string      `json:"url" db:"url"`
	Description string      `json:"description,omitempty" db:"description"`
	PriceInfo   string      `json:"priceInfo,omitempty" db:"price_info"`
}

// FirstDate returns the earliest performance date.
func (e *Event) FirstDate() (time.Time, bool) {
	var first time.Time
	for _, d := range e.Dates {
		if first.IsZero() || d.Date.Before(first) {
			first = d.Date
		}
	}
	return first, !first.IsZero()
}

// HasDateIn reports whether any performance falls inside [from, to].
func (e *Event) HasDateIn(from, to time.Time) bool {
	for _, d := range e.Dates {
		if !d.Date.Before(from) && !d.Date.After(to) {
			return true
		}
	}
	return false
}

// Ref returns the favorites reference for the event.
func (e *Event) Ref() FavoriteRef {
	return FavoriteRef{EventID: e.EventID, Title: e.Title}
}
