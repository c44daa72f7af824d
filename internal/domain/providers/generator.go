package providers

import (
	"context"
	"errors"
)

// ChatRole is the author of a chat message sent to a generator.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of a generator prompt.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Generator produces free text from a chat prompt.
type Generator interface {
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
}

var (
	ErrGeneratorRateLimit     = errors.New("generator rate limited")
	ErrGeneratorUnavailable   = errors.New("generator unavailable")
	ErrGeneratorQuotaExceeded = errors.New("generator quota exceeded")
)

// GeneratorFailure is the failure taxonomy of a generator call.
type GeneratorFailure string

const (
	GeneratorFailureNone        GeneratorFailure = ""
	GeneratorFailureRateLimit   GeneratorFailure = "rate_limit"
	GeneratorFailureUnavailable GeneratorFailure = "service_unavailable"
	GeneratorFailureQuota       GeneratorFailure = "quota_exceeded"
	GeneratorFailureGeneric     GeneratorFailure = "generic"
)

// ClassifyGeneratorError maps err onto the failure taxonomy.
func ClassifyGeneratorError(err error) GeneratorFailure {
	switch {
	case err == nil:
		return GeneratorFailureNone
	case errors.Is(err, ErrGeneratorQuotaExceeded):
		return GeneratorFailureQuota
	case errors.Is(err, ErrGeneratorRateLimit):
		return GeneratorFailureRateLimit
	case errors.Is(err, ErrGeneratorUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return GeneratorFailureUnavailable
	default:
		return GeneratorFailureGeneric
	}
}
