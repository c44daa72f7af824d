package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")
	t.Setenv("TYPESENSE_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
	assert.True(t, cfg.Typesense.Enabled)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "zh-TW", cfg.Assistant.DefaultLocale)
	assert.Equal(t, 6, cfg.Assistant.HistoryLimit)
	assert.Equal(t, 20*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_AssistantOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_DEFAULT_LOCALE", "en")
	t.Setenv("ASSISTANT_RESULT_LIMIT", "25")
	t.Setenv("ASSISTANT_SESSION_TTL", "2h")
	t.Setenv("OPENAI_TEMPERATURE", "0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Assistant.DefaultLocale)
	assert.Equal(t, 25, cfg.Assistant.ResultLimit)
	assert.Equal(t, 2*time.Hour, cfg.Assistant.SessionTTL)
	assert.InDelta(t, 0.1, cfg.OpenAI.Temperature, 1e-9)
}

func TestLoad_RejectsUnknownLocale(t *testing.T) {
	t.Setenv("ASSISTANT_DEFAULT_LOCALE", "fr")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadTimeZone(t *testing.T) {
	t.Setenv("ASSISTANT_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}
