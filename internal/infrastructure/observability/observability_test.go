package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, "ticket-assistant", "production")

	UserLogger(context.Background(), "U123").Info().Str("intent", "SEARCH").Msg("turn")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ticket-assistant", line["service"])
	assert.Equal(t, "U123", line["user_id"])
	assert.Equal(t, "SEARCH", line["intent"])
	assert.NotContains(t, line, "trace_id")
}

func TestInitMetrics_NoopProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordTurn(ctx, m, "IDLE", "SEARCH_EVENTS", 10*time.Millisecond)
		RecordGeneratorFailure(ctx, m, "rate_limit")
		RecordZeroResult(ctx, m, "artist")
		RecordRequestMetric(ctx, m, "POST", "/api/conversations/messages", 200, time.Millisecond)
		RecordCacheHit(ctx, nil, "events")
	})
}
