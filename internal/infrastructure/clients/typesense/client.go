package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/pkg/config"
	"github.com/zatekoja/ticketassistant/pkg/retry"
)

const (
	EventsCollection = "events"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := observability.GetLogger()
	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// NewClientFromTypesense wraps a configured client without a health check.
func NewClientFromTypesense(client *typesense.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// EventsSchema is the collection schema for indexed events.
func EventsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: EventsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "subtitle", Type: "string", Optional: pointer.True()},
			{Name: "venue", Type: "string", Facet: pointer.True()},
			{Name: "artists", Type: "string[]", Optional: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "first_date", Type: "int64"},
		},
		DefaultSortingField: pointer.String("first_date"),
		TokenSeparators:     &[]string{"-", "/"},
	}
}

// InitSchema ensures the events collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	logger := observability.LoggerFromContext(ctx)
	for _, col := range collections {
		if col.Name == EventsCollection {
			logger.Debug().Str("collection", EventsCollection).Msg("Typesense collection exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, EventsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	logger.Info().Str("collection", EventsCollection).Msg("created Typesense collection")
	return nil
}
