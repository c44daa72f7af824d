package main

import (
	"fmt"
	"os"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/openai"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

// assistant is the conversation service wired over in-memory adapters.
type assistant struct {
	conversation *services.ConversationService
	sessions     *memory.SessionRepository
	store        *services.SessionStore
	parser       *services.QueryParser
	classifier   *services.IntentClassifier
}

func loadKnowledge() (*knowledge.Base, error) {
	if knowledgePath == "" {
		return knowledge.Default(), nil
	}
	return knowledge.Load(knowledgePath)
}

func newAssistant(cfg *config.Config) (*assistant, error) {
	observability.InitLoggerWithWriter(os.Stderr, "chatcli", "development")

	kb, err := loadKnowledge()
	if err != nil {
		return nil, err
	}
	events, err := knowledge.LoadEvents(eventsPath)
	if err != nil {
		return nil, err
	}
	searchCache, err := cache.NewMemoryAdapter(512)
	if err != nil {
		return nil, err
	}

	var generator providers.Generator
	if cfg.OpenAI.APIKey != "" {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		generator = openai.NewBreakerGenerator(client, openai.BreakerSettings{Name: "openai"})
	}

	loc := cfg.Assistant.Location()
	defaultLocale, _ := entities.ParseLocale(cfg.Assistant.DefaultLocale)
	sessions := memory.NewSessionRepository()
	messages := memory.NewMessageRepository()

	parser := services.NewQueryParser(kb, services.NewDateParser(loc, nil))
	responses := services.NewResponseBuilder(kb, loc, cfg.Assistant.DisplayLimit, cfg.Assistant.ExternalSearchURL)
	search := services.NewSearchService(memory.NewEventRepository(events...), nil, searchCache, kb, cfg.Assistant.ResultLimit)
	store := services.NewSessionStore(sessions, defaultLocale, nil)
	classifier := services.NewIntentClassifier(kb, parser)

	conversation := services.NewConversationService(services.ConversationDeps{
		Sessions:   store,
		Classifier: classifier,
		Machine:    services.NewStateMachine(),
		Parser:     parser,
		Search:     search,
		Responses:  responses,
		Generation: services.NewGenerationService(
			generator,
			messages,
			responses,
			services.NewTokenCounter(cfg.OpenAI.Model),
			cfg.Assistant.HistoryLimit,
			cfg.Assistant.HistoryTokens,
		),
		Favorites:     services.NewFavoriteService(memory.NewFavoriteRepository(), store),
		Messages:      messages,
		Analytics:     services.NewSearchAnalyticsService(memory.NewSearchAnalyticsRepository()),
		Legacy:        services.NewLegacyHandler(kb, parser, search, responses),
		DefaultLocale: defaultLocale,
	})

	return &assistant{
		conversation: conversation,
		sessions:     sessions,
		store:        store,
		parser:       parser,
		classifier:   classifier,
	}, nil
}
