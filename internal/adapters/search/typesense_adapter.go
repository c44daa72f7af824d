package search

import (
	"context"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	tsclient "github.com/zatekoja/ticketassistant/internal/infrastructure/clients/typesense"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

const queryBy = "title,subtitle,artists,tags,venue,description"

// TypesenseAdapter is the full-text event index.
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements EventIndex
var _ providers.EventIndex = (*TypesenseAdapter)(nil)

func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts one document per event.
func (a *TypesenseAdapter) Index(ctx context.Context, events []*entities.Event) error {
	docs := a.client.Client().Collection(tsclient.EventsCollection).Documents()
	for _, e := range events {
		if e == nil || e.EventID == "" {
			continue
		}
		if _, err := docs.Upsert(ctx, buildEventDocument(e)); err != nil {
			return apperrors.NewExternalError("failed to index event "+e.EventID, err)
		}
	}
	return nil
}

// Search returns matching event ids, best first.
func (a *TypesenseAdapter) Search(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(text),
		QueryBy: pointer.String(queryBy),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.EventsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search events", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	ids := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func buildEventDocument(e *entities.Event) map[string]interface{} {
	doc := map[string]interface{}{
		"id":    e.EventID,
		"title": e.Title,
		"venue": e.Venue,
		"tags":  buildEventTags(e),
	}
	if e.Subtitle != "" {
		doc["subtitle"] = e.Subtitle
	}
	if len(e.Artists) > 0 {
		doc["artists"] = e.Artists
	}
	if e.Category != "" {
		doc["category"] = e.Category
	}
	if e.Description != "" {
		doc["description"] = e.Description
	}
	var first int64
	if t, ok := e.FirstDate(); ok {
		first = t.Unix()
	}
	doc["first_date"] = first
	return doc
}

// buildEventTags lowercases and de-duplicates the short facets of an event
// in their original order.
func buildEventTags(e *entities.Event) []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var tags []string
	add := func(terms ...string) {
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	add(e.Artists...)
	add(e.Venue, e.Category)
	return tags
}
