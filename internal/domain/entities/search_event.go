package entities

import (
	"time"
)

// SearchEvent records one executed search for analytics.
type SearchEvent struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Query       string    `json:"query" db:"query"`
	QueryType   QueryType `json:"query_type" db:"query_type"`
	ResultCount int       `json:"result_count" db:"result_count"`
	LatencyMs   int       `json:"latency_ms" db:"latency_ms"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
