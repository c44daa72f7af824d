package services

import (
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

// artistFieldPriority is the order fields are consulted in; earlier wins.
var artistFieldPriority = []repositories.EventField{
	repositories.EventFieldArtists,
	repositories.EventFieldTitle,
	repositories.EventFieldSubtitle,
	repositories.EventFieldDescription,
}

// performerWindow is how many runes around a description hit are searched
// for a performer-context word.
const performerWindow = 24

// ArtistMatcher matches artist names against event fields.
type ArtistMatcher struct {
	kb *knowledge.Base
}

func NewArtistMatcher(kb *knowledge.Base) *ArtistMatcher {
	return &ArtistMatcher{kb: kb}
}

// Names expands name with its knowledge-base aliases.
func (m *ArtistMatcher) Names(name string) []string {
	if artist, ok := m.kb.LookupArtist(name); ok {
		return artist.Names()
	}
	return []string{strings.TrimSpace(name)}
}

// Terms converts names to repository match terms: Latin names are bounded
// at word boundaries, Han names are plain substrings.
func (m *ArtistMatcher) Terms(names []string) []repositories.MatchTerm {
	terms := make([]repositories.MatchTerm, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		terms = append(terms, repositories.MatchTerm{Text: n, WholeWord: utils.IsLatinWord(n)})
	}
	return terms
}

// Match returns the highest-priority field of e that mentions any name, and
// its rank in artistFieldPriority.
func (m *ArtistMatcher) Match(e *entities.Event, names []string) (repositories.EventField, int, bool) {
	for rank, field := range artistFieldPriority {
		for _, text := range eventFieldText(e, field) {
			if kwMatch.containsAny(text, names) {
				return field, rank, true
			}
		}
	}
	return "", 0, false
}

// Confirm is the relevance pass: a description-only hit counts only when a
// performer-context word sits near the name, or when the event lists no
// artists at all.
func (m *ArtistMatcher) Confirm(e *entities.Event, names []string, field repositories.EventField) bool {
	if field != repositories.EventFieldDescription {
		return true
	}
	if len(e.Artists) == 0 {
		return true
	}
	for _, name := range names {
		start, end, ok := kwMatch.find(e.Description, name)
		if !ok {
			continue
		}
		window := runeWindow(e.Description, start, end, performerWindow)
		if kwMatch.containsAny(window, m.kb.PerformerContext()) {
			return true
		}
	}
	return false
}

func runeWindow(text string, start, end, n int) string {
	before := []rune(text[:start])
	after := []rune(text[end:])
	if len(before) > n {
		before = before[len(before)-n:]
	}
	if len(after) > n {
		after = after[:n]
	}
	return string(before) + " " + text[start:end] + " " + string(after)
}

func eventFieldText(e *entities.Event, field repositories.EventField) []string {
	switch field {
	case repositories.EventFieldArtists:
		return e.Artists
	case repositories.EventFieldTitle:
		return []string{e.Title}
	case repositories.EventFieldSubtitle:
		return []string{e.Subtitle}
	case repositories.EventFieldDescription:
		return []string{e.Description}
	case repositories.EventFieldVenue:
		return []string{e.Venue}
	case repositories.EventFieldCategory:
		return []string{e.Category}
	}
	return nil
}
