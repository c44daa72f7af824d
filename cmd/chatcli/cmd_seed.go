package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/ticketassistant/internal/adapters/database"
	eventbus "github.com/zatekoja/ticketassistant/internal/adapters/events"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/redis"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

var notifyAPI bool

func init() {
	seedCmd.Flags().BoolVar(&notifyAPI, "notify", false, "publish a corpus update over Redis so running API servers drop cached searches")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate Postgres and upsert the events corpus into it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		events, err := knowledge.LoadEvents(eventsPath)
		if err != nil {
			return err
		}

		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgClient.Close()

		ctx := cmd.Context()
		if err := database.Migrate(ctx, pgClient); err != nil {
			return err
		}
		if err := database.NewEventAdapter(pgClient).Upsert(ctx, events); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d events.\n", len(events))

		if !notifyAPI {
			return nil
		}
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()

		bus := eventbus.NewRedisEventBus(redisClient)
		defer bus.Close()

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.EventID
		}
		update := entities.NewCorpusEvent(entities.CorpusEventUpserted, "chatcli seed", len(events), ids...)
		return bus.Publish(ctx, providers.EventChannelCorpusUpdates, update)
	},
}
