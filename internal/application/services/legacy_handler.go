package services

import (
	"context"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

// LegacyHandler answers a turn without reading or writing the session: it
// treats the message as a one-shot search. It is the fallback when the
// stateful pipeline fails.
type LegacyHandler struct {
	parser    *QueryParser
	search    *SearchService
	responses *ResponseBuilder
	kb        *knowledge.Base
}

func NewLegacyHandler(kb *knowledge.Base, parser *QueryParser, search *SearchService, responses *ResponseBuilder) *LegacyHandler {
	return &LegacyHandler{parser: parser, search: search, responses: responses, kb: kb}
}

func (h *LegacyHandler) Handle(ctx context.Context, message string, locale entities.Locale) (*entities.Reply, error) {
	idle := &entities.Session{State: entities.SessionStateIdle}
	reply := func(text string) *entities.Reply {
		return &entities.Reply{ReplyText: text, QuickReply: SuggestedRepliesFor(idle, locale)}
	}

	if entry, ok := h.kb.MatchFAQ(message); ok {
		return reply(h.responses.FAQAnswer(entry, locale)), nil
	}

	q := h.parser.Parse(message)
	if q.IsFollowUp() && q.QuotedTitle == "" {
		return reply(h.responses.NoAction("", locale)), nil
	}

	result, err := h.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	built := h.responses.BuildStructuredResponse(q, result, locale)
	if built.UseLLM {
		return reply(h.responses.NotFound(q, locale)), nil
	}
	return reply(built.Text), nil
}
