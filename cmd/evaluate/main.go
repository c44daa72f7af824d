package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/adapters/search"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/evaluation"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/config"
)

// serviceWrapper adapts SearchService to evaluation.SearchResultProvider
type serviceWrapper struct {
	svc *services.SearchService
}

func (w *serviceWrapper) Search(ctx context.Context, q *entities.ParsedQuery) ([]*entities.Event, error) {
	res, err := w.svc.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

func main() {
	goldenPath := flag.String("golden", "", "golden query JSON file (defaults to the set labeled for the sample corpus)")
	eventsPath := flag.String("events", "", "event corpus YAML file (defaults to the sample corpus)")
	knowledgePath := flag.String("knowledge", "", "knowledge base YAML file")
	minRecall := flag.Float64("min-recall", 0, "exit non-zero when average Recall@10 falls below this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLoggerWithWriter(os.Stderr, "ticket-evaluate", cfg.Server.Environment)
	logger := observability.GetLogger()

	kb := knowledge.Default()
	if *knowledgePath != "" {
		if kb, err = knowledge.Load(*knowledgePath); err != nil {
			logger.Fatal().Err(err).Msg("failed to load knowledge base")
		}
	}

	var events []*entities.Event
	if *eventsPath != "" {
		events, err = knowledge.LoadEvents(*eventsPath)
	} else {
		events, err = knowledge.SampleEvents()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load events")
	}

	var queries []evaluation.GoldenQuery
	if *goldenPath != "" {
		queries, err = evaluation.LoadGoldenQueries(*goldenPath)
	} else {
		queries, err = evaluation.DefaultGoldenQueries()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		logger.Fatal().Err(err).Msg("invalid golden queries")
	}

	var index providers.EventIndex
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Typesense")
		}
		index = search.NewTypesenseAdapter(tsClient)
	}

	parser := services.NewQueryParser(kb, services.NewDateParser(cfg.Assistant.Location(), nil))
	searchService := services.NewSearchService(memory.NewEventRepository(events...), index, nil, kb, cfg.Assistant.ResultLimit)

	runner := evaluation.NewRunner(parser, &serviceWrapper{svc: searchService})
	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	for _, res := range summary.Results {
		ev := logger.Debug()
		if res.Err != nil || res.RecallAt10 < 1 || !res.TypeMatch() {
			ev = logger.Info()
		}
		ev.Str("query_id", res.QueryID).
			Str("expected_type", string(res.QueryType)).
			Str("parsed_type", string(res.ParsedType)).
			Float64("recall_at_10", res.RecallAt10).
			Strs("retrieved", res.RetrievedIDs).
			AnErr("error", res.Err).
			Msg("golden query")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if summary.AvgRecallAt10 < *minRecall {
		logger.Error().
			Float64("recall_at_10", summary.AvgRecallAt10).
			Float64("min_recall", *minRecall).
			Msg("recall below threshold")
		os.Exit(1)
	}
}
