package evaluation

import (
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// validQueryTypes are the labels a golden query may carry. Follow-ups need
// session context and cannot be scored in isolation.
var validQueryTypes = map[entities.QueryType]bool{
	entities.QueryTypeArtist:   true,
	entities.QueryTypeVenue:    true,
	entities.QueryTypeCategory: true,
	entities.QueryTypeDate:     true,
	entities.QueryTypeGeneral:  true,
	entities.QueryTypeMixed:    true,
}

// GoldenQuery is a labeled message with the events a good search returns.
// An empty ExpectedEventIDs means the corpus has nothing for it and the
// search should come back empty.
type GoldenQuery struct {
	ID               string             `json:"id"`
	Query            string             `json:"query"`
	QueryType        entities.QueryType `json:"query_type"`
	ExpectedEventIDs []string           `json:"expected_event_ids"`
	Difficulty       string             `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID      string
	Query        string
	QueryType    entities.QueryType
	ParsedType   entities.QueryType
	RecallAt10   float64
	MRRAt10      float64
	ResultCount  int
	RetrievedIDs []string
	Latency      time.Duration
	Err          error `json:"-"`
}

// TypeMatch reports whether the parser labeled the query as expected.
func (r EvalResult) TypeMatch() bool {
	return r.QueryType == r.ParsedType
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int
	Failed          int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgLatency      time.Duration
	QueriesWithHits int
	TypeAccuracy    float64
	ByType          map[entities.QueryType]*TypeSummary
	Results         []EvalResult
}

// TypeSummary holds metrics grouped by labeled query type.
type TypeSummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
}
