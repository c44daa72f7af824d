package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

const (
	candidateLimit    = 200
	venueScanLimit    = 500
	searchCacheTTL    = 120 // seconds
	searchCachePrefix = "event_query:"
)

var generalFields = []repositories.EventField{
	repositories.EventFieldTitle,
	repositories.EventFieldSubtitle,
	repositories.EventFieldArtists,
	repositories.EventFieldVenue,
	repositories.EventFieldDescription,
}

// SearchResult is what every search primitive returns. Total counts matches
// before the result limit was applied.
type SearchResult struct {
	Events []*entities.Event
	Total  int
	Query  *entities.ParsedQuery
}

// SearchService runs structured queries against the event corpus. Delisted
// events never appear in a result.
type SearchService struct {
	events  repositories.EventRepository
	index   providers.EventIndex
	cache   providers.CacheProvider
	kb      *knowledge.Base
	venues  *VenueMatcher
	artists *ArtistMatcher
	ranking *EventRankingService
	limit   int
	metrics *observability.Metrics
}

// NewSearchService creates a search service. index and cache may be nil.
func NewSearchService(
	events repositories.EventRepository,
	index providers.EventIndex,
	cache providers.CacheProvider,
	kb *knowledge.Base,
	resultLimit int,
) *SearchService {
	if resultLimit <= 0 {
		resultLimit = 10
	}
	return &SearchService{
		events:  events,
		index:   index,
		cache:   cache,
		kb:      kb,
		venues:  NewVenueMatcher(kb),
		artists: NewArtistMatcher(kb),
		ranking: NewEventRankingService(),
		limit:   resultLimit,
	}
}

// WithMetrics enables zero-result and cache metrics.
func (s *SearchService) WithMetrics(m *observability.Metrics) *SearchService {
	s.metrics = m
	return s
}

// Search dispatches q to the primitive its type calls for. A typed search
// that finds nothing retries as a general search when residual keywords
// exist; artist searches never loosen.
func (s *SearchService) Search(ctx context.Context, q *entities.ParsedQuery) (*SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "search.events")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("query.type", string(q.QueryType)))

	events, err := s.dispatch(ctx, q)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if len(events) == 0 && len(q.Keywords) > 0 &&
		q.QueryType != entities.QueryTypeArtist && q.QueryType != entities.QueryTypeGeneral {
		observability.LoggerFromContext(ctx).Debug().
			Str("query_type", string(q.QueryType)).
			Strs("keywords", q.Keywords).
			Msg("typed search empty, falling back to general")
		if events, err = s.general(ctx, generalText(q), q.Keywords); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
	}

	if len(events) == 0 {
		observability.RecordZeroResult(ctx, s.metrics, string(q.QueryType))
	}
	observability.SetSpanAttributes(span, attribute.Int("result.count", len(events)))
	return s.result(events, q), nil
}

func (s *SearchService) dispatch(ctx context.Context, q *entities.ParsedQuery) ([]*entities.Event, error) {
	switch q.QueryType {
	case entities.QueryTypeArtist:
		return s.byArtist(ctx, q.Artists)
	case entities.QueryTypeVenue:
		return s.byVenues(ctx, q.Venues)
	case entities.QueryTypeCategory:
		return s.byCategory(ctx, q.Categories)
	case entities.QueryTypeDate:
		if len(q.Artists)+len(q.Venues)+len(q.Categories) > 0 {
			return s.advanced(ctx, q)
		}
		return s.byDateRange(ctx, q.DateRange.From, q.DateRange.To)
	case entities.QueryTypeMixed:
		return s.advanced(ctx, q)
	case entities.QueryTypeGeneral, entities.QueryTypeFollowUp:
		return s.general(ctx, generalText(q), q.Keywords)
	}
	return nil, nil
}

func (s *SearchService) result(events []*entities.Event, q *entities.ParsedQuery) *SearchResult {
	total := len(events)
	if len(events) > s.limit {
		events = events[:s.limit]
	}
	return &SearchResult{Events: events, Total: total, Query: q}
}

// ByArtist searches for events naming any of the artists.
func (s *SearchService) ByArtist(ctx context.Context, artists []string) (*SearchResult, error) {
	events, err := s.byArtist(ctx, artists)
	if err != nil {
		return nil, err
	}
	return s.result(events, &entities.ParsedQuery{QueryType: entities.QueryTypeArtist, Artists: artists}), nil
}

// ByVenue searches for events held at venue.
func (s *SearchService) ByVenue(ctx context.Context, venue string) (*SearchResult, error) {
	events, err := s.byVenue(ctx, venue)
	if err != nil {
		return nil, err
	}
	return s.result(events, &entities.ParsedQuery{QueryType: entities.QueryTypeVenue, Venues: []string{venue}}), nil
}

// ByCategory searches for events in any of the categories.
func (s *SearchService) ByCategory(ctx context.Context, categories []string) (*SearchResult, error) {
	events, err := s.byCategory(ctx, categories)
	if err != nil {
		return nil, err
	}
	return s.result(events, &entities.ParsedQuery{QueryType: entities.QueryTypeCategory, Categories: categories}), nil
}

// ByDateRange searches for events with a performance inside [from, to].
func (s *SearchService) ByDateRange(ctx context.Context, from, to time.Time) (*SearchResult, error) {
	events, err := s.byDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	q := &entities.ParsedQuery{QueryType: entities.QueryTypeDate, DateRange: &entities.DateRange{From: from, To: to}}
	return s.result(events, q), nil
}

// Advanced searches with every facet of q applied.
func (s *SearchService) Advanced(ctx context.Context, q *entities.ParsedQuery) (*SearchResult, error) {
	events, err := s.advanced(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.result(events, q), nil
}

// General runs a free-text search over titles, artists, venues and
// descriptions.
func (s *SearchService) General(ctx context.Context, text string, keywords []string) (*SearchResult, error) {
	events, err := s.general(ctx, text, keywords)
	if err != nil {
		return nil, err
	}
	q := &entities.ParsedQuery{QueryType: entities.QueryTypeGeneral, Raw: text, Keywords: keywords}
	return s.result(events, q), nil
}

// byArtist returns events naming any of the artists, ordered by the field
// the name was found in, then relevance, then date.
func (s *SearchService) byArtist(ctx context.Context, artists []string) ([]*entities.Event, error) {
	var names []string
	for _, a := range artists {
		for _, n := range s.artists.Names(a) {
			names = appendUnique(names, n)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	candidates, err := s.find(ctx, repositories.EventQuery{
		Terms:  s.artists.Terms(names),
		Fields: artistFieldPriority,
		Limit:  candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	type hit struct {
		event *entities.Event
		rank  int
		score float64
	}
	var hits []hit
	for _, e := range candidates {
		if s.kb.IsDelisted(e) {
			continue
		}
		field, rank, ok := s.artists.Match(e, names)
		if !ok || !s.artists.Confirm(e, names, field) {
			continue
		}
		score, _ := s.ranking.calculateScore(e, names[0], names, false)
		hits = append(hits, hit{event: e, rank: rank, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return earlier(hits[i].event, hits[j].event)
	})

	out := make([]*entities.Event, len(hits))
	for i, h := range hits {
		out[i] = h.event
	}
	return out, nil
}

// byVenue returns events held at venue. Known venues are matched strictly;
// unknown ones by containment, scanning the corpus when the repository
// pre-filter finds nothing.
func (s *SearchService) byVenue(ctx context.Context, venue string) ([]*entities.Event, error) {
	venue = strings.TrimSpace(venue)
	if venue == "" {
		return nil, nil
	}

	var terms []repositories.MatchTerm
	for _, t := range s.venues.SearchTerms(venue) {
		terms = append(terms, repositories.MatchTerm{Text: t, WholeWord: utils.IsLatinWord(t)})
	}
	candidates, err := s.find(ctx, repositories.EventQuery{
		Terms:  terms,
		Fields: []repositories.EventField{repositories.EventFieldVenue},
		Limit:  candidateLimit,
	})
	if err != nil {
		return nil, err
	}
	out := s.filterVenue(candidates, venue)

	if _, known := s.venues.Resolve(venue); !known && len(out) == 0 {
		all, err := s.events.List(ctx, venueScanLimit, 0)
		if err != nil {
			return nil, err
		}
		out = s.filterVenue(all, venue)
	}

	sortByDate(out)
	return out, nil
}

func (s *SearchService) byVenues(ctx context.Context, venues []string) ([]*entities.Event, error) {
	var out []*entities.Event
	for _, v := range venues {
		events, err := s.byVenue(ctx, v)
		if err != nil {
			return nil, err
		}
		out = mergeEvents(out, events)
	}
	sortByDate(out)
	return out, nil
}

func (s *SearchService) filterVenue(events []*entities.Event, venue string) []*entities.Event {
	var out []*entities.Event
	for _, e := range events {
		if !s.kb.IsDelisted(e) && s.venues.Matches(e.Venue, venue) {
			out = append(out, e)
		}
	}
	return out
}

// byCategory returns events filed under any of the categories or whose
// title names one of them.
func (s *SearchService) byCategory(ctx context.Context, categories []string) ([]*entities.Event, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	var terms []repositories.MatchTerm
	for _, name := range categories {
		if c, ok := s.kb.LookupCategory(name); ok {
			for _, t := range c.Terms() {
				terms = append(terms, repositories.MatchTerm{Text: t, WholeWord: utils.IsLatinWord(t)})
			}
		}
	}

	filed, err := s.find(ctx, repositories.EventQuery{Categories: categories, Limit: candidateLimit})
	if err != nil {
		return nil, err
	}
	named, err := s.find(ctx, repositories.EventQuery{
		Terms:  terms,
		Fields: []repositories.EventField{repositories.EventFieldTitle, repositories.EventFieldSubtitle, repositories.EventFieldCategory},
		Limit:  candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	out := s.dropDelisted(mergeEvents(filed, named))
	sortByDate(out)
	return out, nil
}

// byDateRange returns events with a performance inside [from, to].
func (s *SearchService) byDateRange(ctx context.Context, from, to time.Time) ([]*entities.Event, error) {
	events, err := s.find(ctx, repositories.EventQuery{From: from, To: to, Limit: candidateLimit})
	if err != nil {
		return nil, err
	}
	var out []*entities.Event
	for _, e := range events {
		if !s.kb.IsDelisted(e) && e.HasDateIn(from, to) {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out, nil
}

// advanced intersects every facet of q: candidates come from the most
// selective facet and are filtered by the rest.
func (s *SearchService) advanced(ctx context.Context, q *entities.ParsedQuery) ([]*entities.Event, error) {
	var (
		candidates []*entities.Event
		err        error
	)
	switch {
	case len(q.Venues) > 0:
		candidates, err = s.byVenues(ctx, q.Venues)
	case len(q.Artists) > 0:
		candidates, err = s.byArtist(ctx, q.Artists)
	case len(q.Categories) > 0:
		candidates, err = s.byCategory(ctx, q.Categories)
	case q.DateRange != nil:
		candidates, err = s.byDateRange(ctx, q.DateRange.From, q.DateRange.To)
	default:
		return s.general(ctx, generalText(q), q.Keywords)
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, a := range q.Artists {
		names = append(names, s.artists.Names(a)...)
	}

	var out []*entities.Event
	for _, e := range candidates {
		if len(q.Venues) > 0 && !s.anyVenue(e, q.Venues) {
			continue
		}
		if len(names) > 0 {
			field, _, ok := s.artists.Match(e, names)
			if !ok || !s.artists.Confirm(e, names, field) {
				continue
			}
		}
		if len(q.Categories) > 0 && !s.inCategories(e, q.Categories) {
			continue
		}
		if q.DateRange != nil && !e.HasDateIn(q.DateRange.From, q.DateRange.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SearchService) anyVenue(e *entities.Event, venues []string) bool {
	for _, v := range venues {
		if s.venues.Matches(e.Venue, v) {
			return true
		}
	}
	return false
}

func (s *SearchService) inCategories(e *entities.Event, categories []string) bool {
	for _, name := range categories {
		if strings.EqualFold(e.Category, name) {
			return true
		}
		c, ok := s.kb.LookupCategory(name)
		if !ok {
			continue
		}
		if kwMatch.containsAny(e.Category, c.Terms()) || kwMatch.containsAny(e.Title, c.Keywords) ||
			kwMatch.containsAny(e.Subtitle, c.Keywords) {
			return true
		}
	}
	return false
}

// general combines an exact-phrase pass, the full-text index and a
// multi-field keyword pass, then ranks the union.
func (s *SearchService) general(ctx context.Context, text string, keywords []string) ([]*entities.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(keywords) == 0 {
		return nil, nil
	}

	var pool []*entities.Event
	if text != "" {
		exact, err := s.find(ctx, repositories.EventQuery{
			Terms:  []repositories.MatchTerm{{Text: text}},
			Fields: []repositories.EventField{repositories.EventFieldTitle, repositories.EventFieldSubtitle},
			Limit:  candidateLimit,
		})
		if err != nil {
			return nil, err
		}
		pool = mergeEvents(pool, exact)
	}

	indexHits := s.searchIndex(ctx, text)
	if len(indexHits) > 0 {
		ids := make([]string, 0, len(indexHits))
		for id := range indexHits {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		indexed, err := s.events.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		pool = mergeEvents(pool, indexed)
	}

	if len(keywords) > 0 {
		var terms []repositories.MatchTerm
		for _, kw := range keywords {
			terms = append(terms, repositories.MatchTerm{Text: kw, WholeWord: utils.IsLatinWord(kw)})
		}
		fuzzy, err := s.find(ctx, repositories.EventQuery{Terms: terms, Fields: generalFields, Limit: candidateLimit})
		if err != nil {
			return nil, err
		}
		pool = mergeEvents(pool, fuzzy)
	}

	kws := keywords
	if len(kws) == 0 && text != "" {
		kws = []string{text}
	}
	var out []*entities.Event
	for _, scored := range s.ranking.Rank(s.dropDelisted(pool), text, kws, indexHits) {
		if scored.Score > 0 {
			out = append(out, scored.Event)
		}
	}
	return out, nil
}

// searchIndex queries the optional full-text index. Index failures degrade
// to the repository passes.
func (s *SearchService) searchIndex(ctx context.Context, text string) map[string]bool {
	if s.index == nil || text == "" {
		return nil
	}
	ids, err := s.index.Search(ctx, text, candidateLimit)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("event index search failed")
		return nil
	}
	hits := make(map[string]bool, len(ids))
	for _, id := range ids {
		hits[id] = true
	}
	return hits
}

// find runs a repository query through the cache when one is configured.
func (s *SearchService) find(ctx context.Context, q repositories.EventQuery) ([]*entities.Event, error) {
	if s.cache == nil {
		return s.events.Find(ctx, q)
	}

	key, err := queryCacheKey(q)
	if err != nil {
		return s.events.Find(ctx, q)
	}
	if data, err := s.cache.Get(ctx, key); err == nil {
		var events []*entities.Event
		if json.Unmarshal(data, &events) == nil {
			observability.RecordCacheHit(ctx, s.metrics, "events")
			return events, nil
		}
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("event cache read failed")
	}
	observability.RecordCacheMiss(ctx, s.metrics, "events")

	events, err := s.events.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(events); err == nil {
		if err := s.cache.Set(ctx, key, data, searchCacheTTL); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("event cache write failed")
		}
	}
	return events, nil
}

func (s *SearchService) dropDelisted(events []*entities.Event) []*entities.Event {
	out := events[:0:0]
	for _, e := range events {
		if !s.kb.IsDelisted(e) {
			out = append(out, e)
		}
	}
	return out
}

func queryCacheKey(q repositories.EventQuery) (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return searchCachePrefix + hex.EncodeToString(sum[:16]), nil
}

// generalText is the phrase a general search matches exactly.
func generalText(q *entities.ParsedQuery) string {
	if q.QuotedTitle != "" {
		return q.QuotedTitle
	}
	if len(q.Keywords) > 0 {
		return strings.Join(q.Keywords, " ")
	}
	return q.Raw
}

// mergeEvents appends the events of b not already in a.
func mergeEvents(a, b []*entities.Event) []*entities.Event {
	seen := make(map[string]struct{}, len(a))
	for _, e := range a {
		seen[e.EventID] = struct{}{}
	}
	for _, e := range b {
		if _, dup := seen[e.EventID]; dup {
			continue
		}
		seen[e.EventID] = struct{}{}
		a = append(a, e)
	}
	return a
}

func sortByDate(events []*entities.Event) {
	sort.SliceStable(events, func(i, j int) bool { return earlier(events[i], events[j]) })
}

// earlier orders by first performance date; undated events go last.
func earlier(a, b *entities.Event) bool {
	da, okA := a.FirstDate()
	db, okB := b.FirstDate()
	switch {
	case okA && okB && !da.Equal(db):
		return da.Before(db)
	case okA != okB:
		return okA
	}
	return a.EventID < b.EventID
}
