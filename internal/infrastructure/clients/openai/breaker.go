package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

// BreakerSettings tunes the circuit breaker around a generator.
type BreakerSettings struct {
	Name             string
	ConsecutiveFails uint32
	OpenTimeout      time.Duration
}

// BreakerGenerator fails fast with ErrGeneratorUnavailable while the wrapped
// generator keeps timing out or returning 5xx. It never retries.
type BreakerGenerator struct {
	next    providers.Generator
	breaker *gobreaker.CircuitBreaker
}

var _ providers.Generator = (*BreakerGenerator)(nil)

// NewBreakerGenerator wraps next in a gobreaker circuit breaker.
func NewBreakerGenerator(next providers.Generator, s BreakerSettings) *BreakerGenerator {
	if s.Name == "" {
		s.Name = "generator"
	}
	if s.ConsecutiveFails == 0 {
		s.ConsecutiveFails = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	logger := observability.GetLogger()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			// only outages trip the breaker
			return err == nil || !errors.Is(err, providers.ErrGeneratorUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("generator circuit breaker state changed")
		},
	})

	return &BreakerGenerator{next: next, breaker: cb}
}

// Chat forwards to the wrapped generator unless the breaker is open.
func (b *BreakerGenerator) Chat(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Chat(ctx, messages)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", providers.ErrGeneratorUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerGenerator) State() string {
	return b.breaker.State().String()
}
