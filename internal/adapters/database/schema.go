package database

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

// Schema creates every table the adapters read and write. Statements are
// idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		event_id    TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		subtitle    TEXT,
		venue       TEXT NOT NULL DEFAULT '',
		artists     TEXT[] NOT NULL DEFAULT '{}',
		category    TEXT,
		dates       JSONB NOT NULL DEFAULT '[]',
		url         TEXT NOT NULL DEFAULT '',
		description TEXT,
		price_info  TEXT,
		first_date  TIMESTAMPTZ,
		last_date   TIMESTAMPTZ,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_dates ON events (first_date, last_date)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              UUID PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		metadata        JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id    TEXT NOT NULL,
		event_id   TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, event_id)
	)`,
	`CREATE TABLE IF NOT EXISTS search_analytics (
		id           UUID PRIMARY KEY,
		user_id      TEXT,
		query        TEXT NOT NULL,
		query_type   TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		latency_ms   INTEGER NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_analytics_zero ON search_analytics (created_at DESC) WHERE result_count = 0`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, client *postgres.Client) error {
	for _, stmt := range Schema {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return apperrors.NewInternalError("failed to apply schema", err)
		}
	}
	return nil
}
