package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

type stubParser struct {
	types map[string]entities.QueryType
}

func (p stubParser) Parse(message string) *entities.ParsedQuery {
	return &entities.ParsedQuery{QueryType: p.types[message], Raw: message}
}

type stubSearcher struct {
	results map[string][]string
	fail    map[string]bool
}

func (s stubSearcher) Search(_ context.Context, q *entities.ParsedQuery) ([]*entities.Event, error) {
	if s.fail[q.Raw] {
		return nil, errors.New("index unavailable")
	}
	var out []*entities.Event
	for _, id := range s.results[q.Raw] {
		out = append(out, &entities.Event{EventID: id})
	}
	return out, nil
}

func TestRunner_Run(t *testing.T) {
	parser := stubParser{types: map[string]entities.QueryType{
		"五月天":      entities.QueryTypeArtist,
		"國家音樂廳":    entities.QueryTypeVenue,
		"Coldplay": entities.QueryTypeArtist,
	}}
	searcher := stubSearcher{results: map[string][]string{
		"五月天":   {"mayday-tp-2026", "mayday-kh-2026"},
		"國家音樂廳": {"other", "langlang-recital-2026"},
	}}
	queries := []GoldenQuery{
		{ID: "a", Query: "五月天", QueryType: entities.QueryTypeArtist, ExpectedEventIDs: []string{"mayday-kh-2026", "mayday-tp-2026"}, Difficulty: "easy"},
		{ID: "v", Query: "國家音樂廳", QueryType: entities.QueryTypeVenue, ExpectedEventIDs: []string{"langlang-recital-2026", "yoyoma-gala-2026"}, Difficulty: "medium"},
		{ID: "n", Query: "Coldplay", QueryType: entities.QueryTypeArtist, Difficulty: "medium"},
	}

	summary, err := NewRunner(parser, searcher).Run(context.Background(), queries)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.InDelta(t, 1.0, summary.Results[0].RecallAt10, floatTolerance)
	assert.InDelta(t, 1.0, summary.Results[0].MRRAt10, floatTolerance)
	assert.InDelta(t, 0.5, summary.Results[1].RecallAt10, floatTolerance)
	assert.InDelta(t, 0.5, summary.Results[1].MRRAt10, floatTolerance)
	// Empty corpus match counts as correct.
	assert.InDelta(t, 1.0, summary.Results[2].RecallAt10, floatTolerance)

	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 2, summary.QueriesWithHits)
	assert.InDelta(t, 2.5/3, summary.AvgRecallAt10, floatTolerance)
	assert.InDelta(t, 1.0, summary.TypeAccuracy, floatTolerance)

	artist := summary.ByType[entities.QueryTypeArtist]
	require.NotNil(t, artist)
	assert.Equal(t, 2, artist.Count)
	assert.InDelta(t, 1.0, artist.AvgRecallAt10, floatTolerance)
}

func TestRunner_UnexpectedResultsForEmptyExpectation(t *testing.T) {
	parser := stubParser{types: map[string]entities.QueryType{"Coldplay": entities.QueryTypeArtist}}
	searcher := stubSearcher{results: map[string][]string{"Coldplay": {"jay-carnival-2026"}}}

	summary, err := NewRunner(parser, searcher).Run(context.Background(), []GoldenQuery{
		{ID: "n", Query: "Coldplay", QueryType: entities.QueryTypeArtist, Difficulty: "medium"},
	})
	require.NoError(t, err)

	assert.Zero(t, summary.Results[0].RecallAt10)
	assert.Zero(t, summary.Results[0].MRRAt10)
}

func TestRunner_FailedSearchesAreExcludedFromAverages(t *testing.T) {
	parser := stubParser{types: map[string]entities.QueryType{
		"五月天": entities.QueryTypeArtist,
		"音樂劇": entities.QueryTypeCategory,
	}}
	searcher := stubSearcher{
		results: map[string][]string{"五月天": {"mayday-tp-2026"}},
		fail:    map[string]bool{"音樂劇": true},
	}

	summary, err := NewRunner(parser, searcher).Run(context.Background(), []GoldenQuery{
		{ID: "a", Query: "五月天", QueryType: entities.QueryTypeArtist, ExpectedEventIDs: []string{"mayday-tp-2026"}, Difficulty: "easy"},
		{ID: "c", Query: "音樂劇", QueryType: entities.QueryTypeCategory, ExpectedEventIDs: []string{"phantom-2026"}, Difficulty: "easy"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Error(t, summary.Results[1].Err)
	assert.InDelta(t, 1.0, summary.AvgRecallAt10, floatTolerance)
	assert.NotContains(t, summary.ByType, entities.QueryTypeCategory)
}

func TestRunner_TypeAccuracy(t *testing.T) {
	parser := stubParser{types: map[string]entities.QueryType{"衛武營": entities.QueryTypeGeneral}}
	searcher := stubSearcher{}

	summary, err := NewRunner(parser, searcher).Run(context.Background(), []GoldenQuery{
		{ID: "v", Query: "衛武營", QueryType: entities.QueryTypeVenue, Difficulty: "medium"},
	})
	require.NoError(t, err)

	assert.False(t, summary.Results[0].TypeMatch())
	assert.Zero(t, summary.TypeAccuracy)
}

func TestRunner_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(stubParser{}, stubSearcher{}).Run(ctx, []GoldenQuery{{ID: "a", Query: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
