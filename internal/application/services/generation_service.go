package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

// TokenCounter measures prompt text against the history budget.
type TokenCounter func(text string) int

// NewTokenCounter returns a tiktoken counter for model, or a rune-based
// estimate when no encoding can be loaded.
func NewTokenCounter(model string) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("model", model).Msg("tokenizer unavailable, estimating prompt size")
		return EstimateTokens
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}
}

// EstimateTokens counts one token per Han character and one per four other
// characters.
func EstimateTokens(text string) int {
	han := 0
	for _, r := range text {
		if r >= 0x3400 && r <= 0x9fff {
			han++
		}
	}
	other := utf8.RuneCountInString(text) - han
	return han + (other+3)/4
}

// GenerationRequest is the context a generated reply may draw on.
type GenerationRequest struct {
	UserID    string
	Message   string
	Locale    entities.Locale
	Query     *entities.ParsedQuery
	Event     *entities.Event
	Events    []*entities.Event
	NoResults bool
}

// GenerationService assembles prompts and calls the generator once.
type GenerationService struct {
	generator     providers.Generator
	messages      repositories.MessageRepository
	countTokens   TokenCounter
	historyLimit  int
	historyTokens int
	responses     *ResponseBuilder
}

func NewGenerationService(
	generator providers.Generator,
	messages repositories.MessageRepository,
	responses *ResponseBuilder,
	countTokens TokenCounter,
	historyLimit, historyTokens int,
) *GenerationService {
	if countTokens == nil {
		countTokens = EstimateTokens
	}
	return &GenerationService{
		generator:     generator,
		messages:      messages,
		countTokens:   countTokens,
		historyLimit:  historyLimit,
		historyTokens: historyTokens,
		responses:     responses,
	}
}

// Generate returns the generated reply. Errors carry the generator sentinels
// so callers can classify them; nothing is retried.
func (g *GenerationService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if g.generator == nil {
		return "", providers.ErrGeneratorUnavailable
	}

	ctx, span := observability.StartSpan(ctx, "generation.chat")
	defer span.End()

	prompt := g.BuildPrompt(ctx, req)
	text, err := g.generator.Chat(ctx, prompt)
	if err != nil {
		observability.RecordError(span, err)
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt is the system prompt, the recent history that fits the token
// budget, and the user's message.
func (g *GenerationService) BuildPrompt(ctx context.Context, req GenerationRequest) []providers.ChatMessage {
	system := g.systemPrompt(req)
	prompt := []providers.ChatMessage{{Role: providers.ChatRoleSystem, Content: system}}
	prompt = append(prompt, g.history(ctx, req.UserID)...)
	return append(prompt, providers.ChatMessage{Role: providers.ChatRoleUser, Content: req.Message})
}

// history keeps the newest messages whose total fits historyTokens, in
// chronological order.
func (g *GenerationService) history(ctx context.Context, userID string) []providers.ChatMessage {
	if g.messages == nil || g.historyLimit <= 0 || userID == "" {
		return nil
	}
	recent, err := g.messages.ListRecent(ctx, userID, g.historyLimit)
	if err != nil {
		observability.UserLogger(ctx, userID).Warn().Err(err).Msg("failed to load conversation history")
		return nil
	}

	used := 0
	start := len(recent)
	for i := len(recent) - 1; i >= 0; i-- {
		n := g.countTokens(recent[i].Content)
		if g.historyTokens > 0 && used+n > g.historyTokens {
			break
		}
		used += n
		start = i
	}

	out := make([]providers.ChatMessage, 0, len(recent)-start)
	for _, m := range recent[start:] {
		role := providers.ChatRoleUser
		if m.Role == entities.MessageRoleAssistant {
			role = providers.ChatRoleAssistant
		}
		out = append(out, providers.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

func (g *GenerationService) systemPrompt(req GenerationRequest) string {
	var sb strings.Builder
	if req.Locale == entities.LocaleEn {
		sb.WriteString("You are a ticketing information assistant. Reply in English, briefly and politely. " +
			"Only use the event data given below. If the data does not answer the question, say so and suggest checking the ticketing site. " +
			"Never invent dates, prices or venues.")
	} else {
		sb.WriteString("你是售票資訊小幫手，請使用繁體中文，簡短且有禮貌地回答。" +
			"只能根據下方提供的活動資料回答；資料不足時請直接說明，並建議使用者到售票網站查詢。" +
			"不可編造日期、票價或地點。")
	}

	switch {
	case req.NoResults:
		subject := querySubject(req.Query)
		if subject == "" && req.Query != nil {
			subject = req.Query.Raw
		}
		if req.Locale == entities.LocaleEn {
			fmt.Fprintf(&sb, "\n\nThe search for \"%s\" found no events. Tell the user nothing matched and suggest another artist, venue or date.", subject)
		} else {
			fmt.Fprintf(&sb, "\n\n使用者搜尋「%s」沒有找到任何活動。請告知找不到相關活動，並建議換個藝人、場館或日期。", subject)
		}
	case req.Event != nil:
		sb.WriteString(pick(req.Locale, "\n\n目前選定的活動：\n", "\n\nThe selected event:\n"))
		sb.WriteString(g.responses.EventDetails(req.Event, req.Locale))
	case len(req.Events) > 0:
		sb.WriteString(pick(req.Locale, "\n\n目前的搜尋結果：\n", "\n\nThe current search results:\n"))
		sb.WriteString(g.responses.EventList(req.Events, req.Locale))
	}

	if link := g.responses.ExternalSearchLink(req.Message); link != "" {
		sb.WriteString(pick(req.Locale, "\n\n外部搜尋連結：", "\n\nExternal search link: "))
		sb.WriteString(link)
	}
	return sb.String()
}
