package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

const evalK = 10

// QueryParser turns a raw message into a structured query.
type QueryParser interface {
	Parse(message string) *entities.ParsedQuery
}

// SearchResultProvider returns ranked events for a parsed query.
type SearchResultProvider interface {
	Search(ctx context.Context, q *entities.ParsedQuery) ([]*entities.Event, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	parser   QueryParser
	searcher SearchResultProvider
}

func NewRunner(parser QueryParser, searcher SearchResultProvider) *Runner {
	return &Runner{parser: parser, searcher: searcher}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByType:       make(map[entities.QueryType]*TypeSummary),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, r.evaluate(ctx, gq))
	}

	for _, res := range summary.Results {
		r.updateSummary(summary, res)
	}
	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, gq GoldenQuery) EvalResult {
	start := time.Now()
	parsed := r.parser.Parse(gq.Query)
	events, err := r.searcher.Search(ctx, parsed)

	res := EvalResult{
		QueryID:   gq.ID,
		Query:     gq.Query,
		QueryType: gq.QueryType,
		Latency:   time.Since(start),
		Err:       err,
	}
	if parsed != nil {
		res.ParsedType = parsed.QueryType
	}
	if err != nil {
		return res
	}

	res.ResultCount = len(events)
	res.RetrievedIDs = make([]string, len(events))
	for i, e := range events {
		res.RetrievedIDs[i] = e.EventID
	}

	res.RecallAt10, res.MRRAt10 = Score(gq.ExpectedEventIDs, res.RetrievedIDs, evalK)
	return res
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgLatency += res.Latency
	if res.TypeMatch() {
		s.TypeAccuracy++
	}
	if res.Err != nil {
		s.Failed++
		return
	}
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	ts, ok := s.ByType[res.QueryType]
	if !ok {
		ts = &TypeSummary{}
		s.ByType[res.QueryType] = ts
	}
	ts.Count++
	ts.AvgRecallAt10 += res.RecallAt10
	ts.AvgMRRAt10 += res.MRRAt10
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		s.AvgLatency /= time.Duration(s.TotalQueries)
		s.TypeAccuracy /= float64(s.TotalQueries)
	}
	if scored := s.TotalQueries - s.Failed; scored > 0 {
		n := float64(scored)
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
	}

	for _, ts := range s.ByType {
		if ts.Count > 0 {
			n := float64(ts.Count)
			ts.AvgRecallAt10 /= n
			ts.AvgMRRAt10 /= n
		}
	}
}
