package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

//go:embed sample_events.yaml
var sampleEventsYAML []byte

type eventsDocument struct {
	Events []eventRecord `yaml:"events"`
}

type eventRecord struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Subtitle    string            `yaml:"subtitle"`
	Venue       string            `yaml:"venue"`
	Artists     []string          `yaml:"artists"`
	Category    string            `yaml:"category"`
	Dates       []eventDateRecord `yaml:"dates"`
	URL         string            `yaml:"url"`
	Description string            `yaml:"description"`
	Price       string            `yaml:"price"`
}

type eventDateRecord struct {
	Date  time.Time `yaml:"date"`
	Label string    `yaml:"label"`
}

// SampleEvents returns the embedded demo corpus.
func SampleEvents() ([]*entities.Event, error) {
	return ParseEvents(sampleEventsYAML)
}

// LoadEvents reads an event corpus from a YAML file, or the embedded demo
// corpus when path is empty.
func LoadEvents(path string) ([]*entities.Event, error) {
	if path == "" {
		return SampleEvents()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}
	return ParseEvents(data)
}

// ParseEvents decodes an events YAML document. Every event needs an id.
func ParseEvents(data []byte) ([]*entities.Event, error) {
	var doc eventsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}

	events := make([]*entities.Event, 0, len(doc.Events))
	for i, r := range doc.Events {
		if r.ID == "" {
			return nil, fmt.Errorf("event %d: id is required", i)
		}
		e := &entities.Event{
			EventID:     r.ID,
			Title:       r.Title,
			Subtitle:    r.Subtitle,
			Venue:       r.Venue,
			Artists:     r.Artists,
			Category:    r.Category,
			URL:         r.URL,
			Description: r.Description,
			PriceInfo:   r.Price,
		}
		for _, d := range r.Dates {
			e.Dates = append(e.Dates, entities.EventDate{Date: d.Date, Label: d.Label})
		}
		events = append(events, e)
	}
	return events, nil
}
