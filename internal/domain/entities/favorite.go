package entities

import "time"

// Favorite is an event a user bookmarked.
type Favorite struct {
	UserID    string    `json:"userId" db:"user_id"`
	EventID   string    `json:"eventId" db:"event_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
