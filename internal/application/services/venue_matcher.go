package services

import (
	"strings"

	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

// VenueMatcher decides whether an event's venue string satisfies a venue
// query. Known venues are matched strictly against the knowledge table
// (canonical name or alias required, exclusions rejected); unknown venues
// fall back to containment in either direction.
type VenueMatcher struct {
	kb *knowledge.Base
}

func NewVenueMatcher(kb *knowledge.Base) *VenueMatcher {
	return &VenueMatcher{kb: kb}
}

// Matches reports whether eventVenue is the venue named by query.
func (m *VenueMatcher) Matches(eventVenue, query string) bool {
	eventVenue = strings.TrimSpace(eventVenue)
	query = strings.TrimSpace(query)
	if eventVenue == "" || query == "" {
		return false
	}
	if strings.EqualFold(eventVenue, query) {
		return true
	}

	eventKey := utils.CompactKey(eventVenue)
	if venue, ok := m.kb.LookupVenue(query); ok {
		return m.matchesKnown(eventVenue, venue)
	}

	queryKey := utils.CompactKey(query)
	if queryKey == "" || eventKey == "" {
		return false
	}
	return strings.Contains(eventKey, queryKey) || strings.Contains(queryKey, eventKey)
}

func (m *VenueMatcher) matchesKnown(eventVenue string, venue *knowledge.Venue) bool {
	if utils.CompactKey(eventVenue) == utils.CompactKey(venue.Canonical) {
		return true
	}
	named := false
	for _, name := range venue.Names() {
		if mentions(eventVenue, name) {
			named = true
			break
		}
	}
	if !named {
		return false
	}
	for _, ex := range venue.Exclusions {
		if mentions(eventVenue, ex) {
			return false
		}
	}
	return true
}

// mentions matches Latin names at word boundaries and everything else by
// compact containment, so "NCH" does not hit "French Hall".
func mentions(text, name string) bool {
	if utils.IsLatinWord(name) {
		return kwMatch.contains(text, name)
	}
	key := utils.CompactKey(name)
	return key != "" && strings.Contains(utils.CompactKey(text), key)
}

// Resolve returns the canonical name for a venue query and whether it is known.
func (m *VenueMatcher) Resolve(query string) (string, bool) {
	if venue, ok := m.kb.LookupVenue(query); ok {
		return venue.Canonical, true
	}
	return strings.TrimSpace(query), false
}

// SearchTerms returns the strings a repository should pre-filter on.
func (m *VenueMatcher) SearchTerms(query string) []string {
	if venue, ok := m.kb.LookupVenue(query); ok {
		return venue.Names()
	}
	return []string{strings.TrimSpace(query)}
}
