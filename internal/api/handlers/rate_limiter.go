package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/providers"
)

// rateLimiter counts requests per key in fixed windows, in the shared cache
// when one is configured and in process otherwise.
type rateLimiter struct {
	cache  providers.CacheProvider
	local  *localRateLimiter
	limit  int
	window time.Duration
}

func newRateLimiter(cache providers.CacheProvider, limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(),
		limit:  limit,
		window: window,
	}
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (l *rateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	state := rateLimitState{}
	if data, err := l.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= l.limit {
		return false, l.window
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = l.cache.Set(ctx, key, data, int(l.window.Seconds()))
	return true, l.window
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}
