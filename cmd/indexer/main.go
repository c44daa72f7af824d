package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zatekoja/ticketassistant/internal/adapters/database"
	"github.com/zatekoja/ticketassistant/internal/adapters/events"
	"github.com/zatekoja/ticketassistant/internal/adapters/search"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/pkg/config"
	"github.com/zatekoja/ticketassistant/pkg/secrets"
)

const pageSize = 200

// eventSource pages through the stored corpus.
type eventSource interface {
	List(ctx context.Context, limit, offset int) ([]*entities.Event, error)
}

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	vaultResult, vaultErr := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("ticket-indexer", cfg.Server.Environment)
	logger := observability.GetLogger()

	if vaultErr != nil {
		logger.Fatal().Err(vaultErr).Str("path", vaultResult.Path).Msg("failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		logger.Info().Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("credentials loaded from Vault")
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := database.Migrate(ctx, pgClient); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	eventStore := database.NewEventAdapter(pgClient)

	var bus providers.EventBus
	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, API caches will not be notified of reindexes")
	} else {
		defer redisClient.Close()
		redisBus := events.NewRedisEventBus(redisClient)
		defer redisBus.Close()
		bus = redisBus
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Typesense client")
	}
	index := search.NewTypesenseAdapter(tsClient)

	for {
		if reset || os.Getenv("RESET_TYPESENSE") == "true" {
			logger.Info().Str("collection", typesense.EventsCollection).Msg("deleting collection before reindex")
			if _, err := tsClient.Client().Collection(typesense.EventsCollection).Delete(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to delete collection")
			}
		}

		if err := tsClient.InitSchema(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to init Typesense schema")
		} else if n, err := indexAll(ctx, eventStore, index); err != nil {
			logger.Error().Err(err).Int("indexed", n).Msg("reindex failed")
		} else {
			logger.Info().Int("indexed", n).Msg("reindex complete")
			if err := announce(ctx, bus, n); err != nil {
				logger.Warn().Err(err).Msg("failed to publish corpus update")
			}
		}

		if interval <= 0 {
			return
		}

		reset = false
		logger.Info().Dur("interval", interval).Msg("waiting for next run")

		select {
		case <-ctx.Done():
			logger.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// announce tells subscribers that the corpus was reindexed. A nil bus is a
// no-op.
func announce(ctx context.Context, bus providers.EventBus, indexed int) error {
	if bus == nil {
		return nil
	}
	event := entities.NewCorpusEvent(entities.CorpusEventReindexed, "indexer", indexed)
	return bus.Publish(ctx, providers.EventChannelCorpusUpdates, event)
}

// indexAll pages through source and pushes every event to index.
func indexAll(ctx context.Context, source eventSource, index providers.EventIndex) (int, error) {
	total := 0
	for offset := 0; ; offset += pageSize {
		page, err := source.List(ctx, pageSize, offset)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			return total, nil
		}
		if err := index.Index(ctx, page); err != nil {
			return total, err
		}
		total += len(page)
		if len(page) < pageSize {
			return total, nil
		}
	}
}
