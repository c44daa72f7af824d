package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/adapters/database"
	"github.com/zatekoja/ticketassistant/internal/adapters/events"
	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/adapters/search"
	"github.com/zatekoja/ticketassistant/internal/adapters/session"
	"github.com/zatekoja/ticketassistant/internal/api/handlers"
	"github.com/zatekoja/ticketassistant/internal/api/middleware"
	"github.com/zatekoja/ticketassistant/internal/api/routes"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/openai"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/config"
	"github.com/zatekoja/ticketassistant/pkg/secrets"
)

func main() {
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment)
	logger := observability.GetLogger()

	if vaultErr != nil {
		logger.Fatal().Err(vaultErr).Str("path", vaultResult.Path).Msg("failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		logger.Info().Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("credentials loaded from Vault")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	kb := knowledge.Default()
	if cfg.Assistant.KnowledgePath != "" {
		kb, err = knowledge.Load(cfg.Assistant.KnowledgePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Assistant.KnowledgePath).Msg("failed to load knowledge base")
		}
	}

	healthChecks := map[string]routes.HealthCheck{}

	// Storage: Postgres when reachable, in-memory otherwise.
	var (
		eventRepo     repositories.EventRepository
		messageRepo   repositories.MessageRepository
		favoriteRepo  repositories.FavoriteRepository
		analyticsRepo repositories.SearchAnalyticsRepository
	)
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("PostgreSQL unavailable, using in-memory storage")
		eventRepo = memory.NewEventRepository()
		messageRepo = memory.NewMessageRepository()
		favoriteRepo = memory.NewFavoriteRepository()
		analyticsRepo = memory.NewSearchAnalyticsRepository()
	} else {
		defer pgClient.Close()
		if err := database.Migrate(ctx, pgClient); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		eventRepo = database.NewEventAdapter(pgClient)
		messageRepo = database.NewMessageAdapter(pgClient)
		favoriteRepo = database.NewFavoriteAdapter(pgClient)
		analyticsRepo = database.NewSearchAnalyticsAdapter(pgClient)
		healthChecks["postgres"] = pgClient.Ping
		logger.Info().Msg("PostgreSQL client initialized")
	}

	// Sessions and cache: Redis when reachable, in-process otherwise.
	var (
		sessionRepo   repositories.SessionRepository
		cacheProvider providers.CacheProvider
	)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, sessions and cache are in-process")
		sessionRepo = memory.NewSessionRepository()
		memCache, err := cache.NewMemoryAdapter(4096)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create in-process cache")
		}
		cacheProvider = memCache
	} else {
		defer redisClient.Close()
		sessionRepo = session.NewRedisSessionAdapter(redisClient, cfg.Assistant.SessionTTL)
		cacheProvider = cache.NewRedisAdapter(redisClient, "ticketassistant")
		healthChecks["redis"] = redisClient.Ping
		logger.Info().Msg("Redis client initialized")

		eventBus := events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
		invalidation := services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			logger.Warn().Err(err).Msg("corpus updates unavailable, cached searches expire by TTL only")
		} else {
			defer invalidation.Stop()
		}
	}

	var eventIndex providers.EventIndex
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Typesense client")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init Typesense schema, full-text index disabled")
		} else {
			eventIndex = search.NewTypesenseAdapter(tsClient)
			logger.Info().Msg("Typesense index enabled")
		}
	}

	var generator providers.Generator
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set; generated replies fall back to apologies")
	} else {
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize OpenAI client")
		} else {
			generator = openai.NewBreakerGenerator(client, openai.BreakerSettings{Name: "openai"})
		}
	}

	loc := cfg.Assistant.Location()
	defaultLocale, _ := entities.ParseLocale(cfg.Assistant.DefaultLocale)

	dates := services.NewDateParser(loc, nil)
	parser := services.NewQueryParser(kb, dates)
	responses := services.NewResponseBuilder(kb, loc, cfg.Assistant.DisplayLimit, cfg.Assistant.ExternalSearchURL)
	searchService := services.NewSearchService(eventRepo, eventIndex, cacheProvider, kb, cfg.Assistant.ResultLimit).WithMetrics(metrics)
	sessionStore := services.NewSessionStore(sessionRepo, defaultLocale, nil)
	favoriteService := services.NewFavoriteService(favoriteRepo, sessionStore)
	analyticsService := services.NewSearchAnalyticsService(analyticsRepo)
	generation := services.NewGenerationService(
		generator,
		messageRepo,
		responses,
		services.NewTokenCounter(cfg.OpenAI.Model),
		cfg.Assistant.HistoryLimit,
		cfg.Assistant.HistoryTokens,
	)

	conversation := services.NewConversationService(services.ConversationDeps{
		Sessions:      sessionStore,
		Classifier:    services.NewIntentClassifier(kb, parser),
		Machine:       services.NewStateMachine(),
		Parser:        parser,
		Search:        searchService,
		Responses:     responses,
		Generation:    generation,
		Favorites:     favoriteService,
		Messages:      messageRepo,
		Analytics:     analyticsService,
		Legacy:        services.NewLegacyHandler(kb, parser, searchService, responses),
		Metrics:       metrics,
		DefaultLocale: defaultLocale,
	})

	router := routes.NewRouter(
		handlers.NewConversationHandler(conversation, sessionStore, cacheProvider),
		handlers.NewFavoriteHandler(favoriteService, eventRepo),
		handlers.NewAnalyticsHandler(analyticsService),
		middleware.NewCacheMiddleware(cacheProvider, metrics, nil),
		metrics,
		healthChecks,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}
