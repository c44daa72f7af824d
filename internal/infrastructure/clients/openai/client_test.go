package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.OpenAIConfig{
		APIKey:       "test-key",
		Model:        "gpt-4o-mini",
		BaseURL:      server.URL + "/v1",
		Timeout:      2 * time.Second,
		RateLimitRPM: -1,
	})
	require.NoError(t, err)
	return client
}

func TestClient_Chat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, providers.ChatRoleSystem, req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  目前沒有相關演出。 "}},
			},
		})
	})

	out, err := client.Chat(context.Background(), []providers.ChatMessage{
		{Role: providers.ChatRoleSystem, Content: "system"},
		{Role: providers.ChatRoleUser, Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "目前沒有相關演出。", out)
}

func TestClient_ChatFailureTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   providers.GeneratorFailure
	}{
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests"}}`, providers.GeneratorFailureRateLimit},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`, providers.GeneratorFailureQuota},
		{"unavailable", http.StatusServiceUnavailable, `{}`, providers.GeneratorFailureUnavailable},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, providers.GeneratorFailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Chat(context.Background(), []providers.ChatMessage{{Role: providers.ChatRoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.Equal(t, tt.want, providers.ClassifyGeneratorError(err))
		})
	}
}

func TestClient_ChatTimeoutIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.Chat(context.Background(), []providers.ChatMessage{{Role: providers.ChatRoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, providers.ErrGeneratorUnavailable)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)
}

type stubGenerator struct {
	calls atomic.Int32
	err   error
}

func (s *stubGenerator) Chat(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "ok", nil
}

func TestBreakerGenerator_OpensOnOutages(t *testing.T) {
	stub := &stubGenerator{err: providers.ErrGeneratorUnavailable}
	gen := NewBreakerGenerator(stub, BreakerSettings{ConsecutiveFails: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := gen.Chat(context.Background(), nil)
		assert.ErrorIs(t, err, providers.ErrGeneratorUnavailable)
	}

	_, err := gen.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, providers.ErrGeneratorUnavailable)
	assert.Equal(t, int32(2), stub.calls.Load(), "open breaker must not call through")
	assert.Equal(t, "open", gen.State())
}

func TestBreakerGenerator_IgnoresNonOutageErrors(t *testing.T) {
	stub := &stubGenerator{err: errors.New("bad request")}
	gen := NewBreakerGenerator(stub, BreakerSettings{ConsecutiveFails: 1})

	for i := 0; i < 3; i++ {
		_, err := gen.Chat(context.Background(), nil)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(3), stub.calls.Load())
	assert.Equal(t, "closed", gen.State())
}
