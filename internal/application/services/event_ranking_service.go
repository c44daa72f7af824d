package services

import (
	"sort"
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

type ScoredEvent struct {
	Event          *entities.Event
	Score          float64
	ScoreBreakdown map[string]float64
}

// EventRankingService scores general-search candidates. An exact title or
// subtitle match dominates; keyword hits then weigh title > subtitle >
// artists > venue > description.
type EventRankingService struct {
	wExact       float64
	wTitle       float64
	wSubtitle    float64
	wArtist      float64
	wVenue       float64
	wDescription float64
	wIndexOnly   float64
}

func NewEventRankingService() *EventRankingService {
	return &EventRankingService{
		wExact:       100,
		wTitle:       10,
		wSubtitle:    6,
		wArtist:      4,
		wVenue:       3,
		wDescription: 1,
		wIndexOnly:   0.5,
	}
}

// Rank orders events by score, then by shorter title, then by id.
// indexHits marks events returned by the full-text index.
func (s *EventRankingService) Rank(events []*entities.Event, query string, kws []string, indexHits map[string]bool) []ScoredEvent {
	if len(events) == 0 {
		return nil
	}

	scored := make([]ScoredEvent, len(events))
	for i, e := range events {
		score, breakdown := s.calculateScore(e, query, kws, indexHits[e.EventID])
		scored[i] = ScoredEvent{Event: e, Score: score, ScoreBreakdown: breakdown}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		li, lj := len([]rune(scored[i].Event.Title)), len([]rune(scored[j].Event.Title))
		if li != lj {
			return li < lj
		}
		return scored[i].Event.EventID < scored[j].Event.EventID
	})

	return scored
}

func (s *EventRankingService) calculateScore(e *entities.Event, query string, kws []string, indexHit bool) (float64, map[string]float64) {
	breakdown := make(map[string]float64)

	queryKey := utils.CompactKey(query)
	if queryKey != "" && (utils.CompactKey(e.Title) == queryKey || utils.CompactKey(e.Subtitle) == queryKey) {
		breakdown["exact"] = s.wExact
	}

	var title, subtitle, artist, venue, description float64
	for _, kw := range kws {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		if kwMatch.contains(e.Title, kw) {
			title++
		}
		if kwMatch.contains(e.Subtitle, kw) {
			subtitle++
		}
		if kwMatch.containsAny(strings.Join(e.Artists, " / "), []string{kw}) {
			artist++
		}
		if kwMatch.contains(e.Venue, kw) {
			venue++
		}
		if kwMatch.contains(e.Description, kw) {
			description++
		}
	}
	breakdown["title"] = title * s.wTitle
	breakdown["subtitle"] = subtitle * s.wSubtitle
	breakdown["artist"] = artist * s.wArtist
	breakdown["venue"] = venue * s.wVenue
	breakdown["description"] = description * s.wDescription

	total := 0.0
	for _, v := range breakdown {
		total += v
	}
	if total == 0 && indexHit {
		breakdown["index"] = s.wIndexOnly
		total = s.wIndexOnly
	}
	return total, breakdown
}
