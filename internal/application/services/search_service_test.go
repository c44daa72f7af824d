package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/cache"
	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

type MockEventIndex struct {
	mock.Mock
}

func (m *MockEventIndex) Search(ctx context.Context, text string, limit int) ([]string, error) {
	args := m.Called(ctx, text, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEventIndex) Index(ctx context.Context, events []*entities.Event) error {
	return m.Called(ctx, events).Error(0)
}

func eventIDs(events []*entities.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.EventID
	}
	return ids
}

func TestSearchService_VenueExcludesOtherHalls(t *testing.T) {
	svc := newTestSearch(
		&entities.Event{EventID: "nch-zh", Title: "春季音樂會", Venue: "國家音樂廳"},
		&entities.Event{EventID: "nch-en", Title: "Spring Gala", Venue: "National Concert Hall"},
		&entities.Event{EventID: "opera", Title: "Gala Night", Venue: "XYZ Opera House Hall A"},
		&entities.Event{EventID: "recital", Title: "室內樂之夜", Venue: "國家音樂廳演奏廳"},
	)

	result, err := svc.ByVenue(context.Background(), "National Concert Hall")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"nch-zh", "nch-en"}, eventIDs(result.Events))
	for _, e := range result.Events {
		assert.NotEqual(t, "XYZ Opera House Hall A", e.Venue)
	}
}

func TestSearchService_UnknownVenueMatchesByContainment(t *testing.T) {
	svc := newTestSearch(
		&entities.Event{EventID: "a", Title: "Indie Night", Venue: "Riverside Live House"},
		&entities.Event{EventID: "b", Title: "Jazz Night", Venue: "Blue Note Taipei"},
	)

	result, err := svc.ByVenue(context.Background(), "Riverside")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, eventIDs(result.Events))
}

func TestSearchService_ArtistWordBoundary(t *testing.T) {
	svc := newTestSearch(
		&entities.Event{EventID: "langlang", Title: "Lang Lang Piano Recital", Artists: []string{"Lang Lang"}},
		&entities.Event{EventID: "language", Title: "Lang Language Workshop", Description: "Learn everyday slang language."},
	)

	result, err := svc.ByArtist(context.Background(), []string{"Lang Lang"})
	require.NoError(t, err)
	assert.Equal(t, []string{"langlang"}, eventIDs(result.Events))
}

func TestSearchService_ArtistDescriptionNeedsPerformerContext(t *testing.T) {
	svc := newTestSearch(
		&entities.Event{EventID: "guest", Title: "New Year Gala", Artists: []string{"NSO"}, Description: "A gala evening with guest cellist Yo-Yo Ma."},
		&entities.Event{EventID: "mention", Title: "Cello Workshop", Artists: []string{"Local Ensemble"}, Description: "Inspired by recordings of Yo-Yo Ma, this class covers basics."},
	)

	result, err := svc.ByArtist(context.Background(), []string{"馬友友"})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest"}, eventIDs(result.Events))
}

func TestSearchService_ExactTitleRanksFirst(t *testing.T) {
	svc := newTestSearch(
		&entities.Event{EventID: "highlights", Title: "2024 Spring Recital Highlights"},
		&entities.Event{EventID: "exact", Title: "Spring Recital"},
	)

	result, err := svc.Search(context.Background(), newTestParser().Parse("Spring Recital"))
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "exact", result.Events[0].EventID)
}

func TestSearchService_DropsDelistedEvents(t *testing.T) {
	svc := newTestSearch(testCorpus()...)

	result, err := svc.Search(context.Background(), newTestParser().Parse("周杰倫演唱會"))
	require.NoError(t, err)
	assert.Equal(t, []string{"jay-2025"}, eventIDs(result.Events))
}

func TestSearchService_DateRangeRoundTrip(t *testing.T) {
	svc := newTestSearch(testCorpus()...)
	responses := newTestResponses()
	parser := newTestParser()

	render := func() string {
		q := parser.Parse("這週末")
		require.NotNil(t, q.DateRange)
		result, err := svc.Search(context.Background(), q)
		require.NoError(t, err)
		built := responses.BuildStructuredResponse(q, result, entities.LocaleZhTW)
		require.False(t, built.UseLLM)
		return built.Text
	}

	first := render()
	assert.Contains(t, first, "五月天 回到那一天 巡迴演唱會 高雄站")
	assert.Contains(t, first, "郎朗鋼琴獨奏會")
	assert.NotContains(t, first, "台北站")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render())
	}
}

func TestSearchService_IndexHitsJoinGeneralResults(t *testing.T) {
	index := new(MockEventIndex)
	index.On("Search", mock.Anything, "piano night", mock.Anything).Return([]string{"langlang"}, nil)
	svc := services.NewSearchService(memory.NewEventRepository(testCorpus()...), index, nil, knowledge.Default(), 10)

	result, err := svc.General(context.Background(), "piano night", []string{"piano", "night"})
	require.NoError(t, err)
	assert.Equal(t, []string{"langlang"}, eventIDs(result.Events))
	index.AssertExpectations(t)
}

func TestSearchService_IndexFailureDegrades(t *testing.T) {
	index := new(MockEventIndex)
	index.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("typesense down"))
	svc := services.NewSearchService(memory.NewEventRepository(testCorpus()...), index, nil, knowledge.Default(), 10)

	result, err := svc.General(context.Background(), "郎朗", []string{"郎朗"})
	require.NoError(t, err)
	assert.Equal(t, []string{"langlang"}, eventIDs(result.Events))
}

func TestSearchService_CachedQueriesAreStable(t *testing.T) {
	lru, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	repo := memory.NewEventRepository(testCorpus()...)
	svc := services.NewSearchService(repo, nil, lru, knowledge.Default(), 10)
	q := newTestParser().Parse("五月天")

	first, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	// A cached read keeps answering after the corpus changes underneath.
	require.NoError(t, repo.Upsert(context.Background(), []*entities.Event{{
		EventID: "mayday-extra", Title: "五月天 加場", Artists: []string{"五月天"},
	}}))
	second, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, eventIDs(first.Events), eventIDs(second.Events))
}

func TestSearchService_ResultLimitKeepsTotal(t *testing.T) {
	var events []*entities.Event
	for _, id := range []string{"a", "b", "c", "d"} {
		events = append(events, &entities.Event{EventID: id, Title: "五月天 " + id, Artists: []string{"五月天"}})
	}
	svc := services.NewSearchService(memory.NewEventRepository(events...), nil, nil, knowledge.Default(), 2)

	result, err := svc.Search(context.Background(), newTestParser().Parse("五月天"))
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)
	assert.Equal(t, 4, result.Total)
}

func TestSearchService_PrimitivesReportTotalAndQuery(t *testing.T) {
	var events []*entities.Event
	for _, id := range []string{"a", "b", "c"} {
		events = append(events, &entities.Event{EventID: id, Title: "Recital " + id, Venue: "國家音樂廳"})
	}
	svc := services.NewSearchService(memory.NewEventRepository(events...), nil, nil, knowledge.Default(), 2)

	result, err := svc.ByVenue(context.Background(), "國家音樂廳")
	require.NoError(t, err)
	assert.Len(t, result.Events, 2)
	assert.Equal(t, 3, result.Total)
	require.NotNil(t, result.Query)
	assert.Equal(t, entities.QueryTypeVenue, result.Query.QueryType)
	assert.Equal(t, []string{"國家音樂廳"}, result.Query.Venues)

	result, err = svc.ByArtist(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Zero(t, result.Total)
}
