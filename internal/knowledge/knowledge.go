// Package knowledge holds the static tables the parser, classifier and
// search engine consult: venues, artists, categories, FAQ rules and word
// lists. Tables load from YAML; the embedded default can be replaced by a
// file at runtime.
package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

//go:embed default.yaml
var defaultYAML []byte

// Venue is one canonical venue with the strings that name it and the
// strings that must not be mistaken for it.
type Venue struct {
	Canonical  string   `yaml:"canonical"`
	City       string   `yaml:"city"`
	Aliases    []string `yaml:"aliases"`
	Exclusions []string `yaml:"exclusions"`
}

// Names returns the canonical name followed by its aliases.
func (v *Venue) Names() []string {
	return append([]string{v.Canonical}, v.Aliases...)
}

// Artist is a known performer.
type Artist struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Names returns the primary name followed by its aliases.
func (a *Artist) Names() []string {
	return append([]string{a.Name}, a.Aliases...)
}

// Category is an event category and the words that signal it.
type Category struct {
	Name        string   `yaml:"name"`
	LabelZh     string   `yaml:"label_zh"`
	LabelEn     string   `yaml:"label_en"`
	Keywords    []string `yaml:"keywords"`
	Performance bool     `yaml:"performance"`
}

// Label returns the display label for locale.
func (c *Category) Label(locale entities.Locale) string {
	if locale == entities.LocaleEn {
		return c.LabelEn
	}
	return c.LabelZh
}

// Terms returns every string that identifies the category.
func (c *Category) Terms() []string {
	out := []string{c.Name, c.LabelZh, c.LabelEn}
	return append(out, c.Keywords...)
}

// Keyword is a matchable string and the canonical entry it resolves to.
type Keyword struct {
	Text      string
	Canonical string
}

type document struct {
	Venues           []Venue             `yaml:"venues"`
	Artists          []Artist            `yaml:"artists"`
	Categories       []Category          `yaml:"categories"`
	FAQ              []entities.FAQEntry `yaml:"faq"`
	StopWords        []string            `yaml:"stop_words"`
	DelistedMarkers  []string            `yaml:"delisted_markers"`
	PerformerContext []string            `yaml:"performer_context"`
	SearchKeywords   []string            `yaml:"search_keywords"`
}

// Base is an indexed, read-only knowledge base. Safe for concurrent use.
type Base struct {
	doc document

	venueByKey      map[string]*Venue
	venueKeywords   []Keyword
	artistByKey     map[string]*Artist
	artistKeywords  []Keyword
	categoryByName  map[string]*Category
	categoryKeyword []Keyword
	stopWords       map[string]struct{}
}

// Load reads the tables from path, or the embedded default when path is empty.
func Load(path string) (*Base, error) {
	if path == "" {
		return Parse(defaultYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded tables. It panics if they do not parse,
// which only a broken build can cause.
func Default() *Base {
	kb, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("knowledge: embedded default: %v", err))
	}
	return kb
}

// Parse builds a Base from YAML.
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge: %w", err)
	}
	kb := &Base{doc: doc}
	if err := kb.index(); err != nil {
		return nil, err
	}
	return kb, nil
}

func (kb *Base) index() error {
	kb.venueByKey = make(map[string]*Venue)
	for i := range kb.doc.Venues {
		v := &kb.doc.Venues[i]
		if v.Canonical == "" {
			return fmt.Errorf("knowledge: venue %d has no canonical name", i)
		}
		for _, name := range v.Names() {
			key := utils.CompactKey(name)
			if key == "" {
				continue
			}
			if _, dup := kb.venueByKey[key]; !dup {
				kb.venueByKey[key] = v
			}
			kb.venueKeywords = append(kb.venueKeywords, Keyword{Text: name, Canonical: v.Canonical})
		}
	}
	sortLongestFirst(kb.venueKeywords)

	kb.artistByKey = make(map[string]*Artist)
	for i := range kb.doc.Artists {
		a := &kb.doc.Artists[i]
		if a.Name == "" {
			return fmt.Errorf("knowledge: artist %d has no name", i)
		}
		for _, name := range a.Names() {
			if key := utils.CompactKey(name); key != "" {
				kb.artistByKey[key] = a
			}
			kb.artistKeywords = append(kb.artistKeywords, Keyword{Text: name, Canonical: a.Name})
		}
	}
	sortLongestFirst(kb.artistKeywords)

	kb.categoryByName = make(map[string]*Category)
	for i := range kb.doc.Categories {
		c := &kb.doc.Categories[i]
		if c.Name == "" {
			return fmt.Errorf("knowledge: category %d has no name", i)
		}
		kb.categoryByName[c.Name] = c
		for _, kw := range c.Keywords {
			kb.categoryKeyword = append(kb.categoryKeyword, Keyword{Text: kw, Canonical: c.Name})
		}
	}
	sortLongestFirst(kb.categoryKeyword)

	kb.stopWords = make(map[string]struct{}, len(kb.doc.StopWords))
	for _, w := range kb.doc.StopWords {
		kb.stopWords[strings.ToLower(w)] = struct{}{}
	}
	return nil
}

func sortLongestFirst(kws []Keyword) {
	sort.SliceStable(kws, func(i, j int) bool {
		li, lj := len([]rune(kws[i].Text)), len([]rune(kws[j].Text))
		if li != lj {
			return li > lj
		}
		return kws[i].Text < kws[j].Text
	})
}

// Venues returns every venue entry.
func (kb *Base) Venues() []Venue { return kb.doc.Venues }

// LookupVenue finds the venue a name or alias refers to.
func (kb *Base) LookupVenue(name string) (*Venue, bool) {
	v, ok := kb.venueByKey[utils.CompactKey(name)]
	return v, ok
}

// VenueKeywords returns every venue name and alias, longest first.
func (kb *Base) VenueKeywords() []Keyword { return kb.venueKeywords }

// LookupArtist resolves an exact, alias or normalized artist name.
func (kb *Base) LookupArtist(name string) (*Artist, bool) {
	a, ok := kb.artistByKey[utils.CompactKey(name)]
	return a, ok
}

// ArtistKeywords returns every artist name and alias, longest first.
func (kb *Base) ArtistKeywords() []Keyword { return kb.artistKeywords }

// Categories returns every category.
func (kb *Base) Categories() []Category { return kb.doc.Categories }

// LookupCategory returns the category with the given name.
func (kb *Base) LookupCategory(name string) (*Category, bool) {
	if c, ok := kb.categoryByName[name]; ok {
		return c, true
	}
	for _, kw := range kb.categoryKeyword {
		if strings.EqualFold(kw.Text, name) {
			return kb.categoryByName[kw.Canonical], true
		}
	}
	return nil, false
}

// CategoryKeywords returns every category keyword, longest first.
func (kb *Base) CategoryKeywords() []Keyword { return kb.categoryKeyword }

// IsPerformanceKeyword reports whether word names a performance category.
func (kb *Base) IsPerformanceKeyword(word string) bool {
	for _, kw := range kb.categoryKeyword {
		if strings.EqualFold(kw.Text, word) {
			return kb.categoryByName[kw.Canonical].Performance
		}
	}
	return false
}

// FAQ returns the FAQ rules in declaration order.
func (kb *Base) FAQ() []entities.FAQEntry { return kb.doc.FAQ }

// MatchFAQ returns the first FAQ rule whose keyword appears in text.
func (kb *Base) MatchFAQ(text string) (*entities.FAQEntry, bool) {
	for i := range kb.doc.FAQ {
		if utils.ContainsAny(text, kb.doc.FAQ[i].Keywords) {
			return &kb.doc.FAQ[i], true
		}
	}
	return nil, false
}

// StopWords returns the raw stop word list.
func (kb *Base) StopWords() []string { return kb.doc.StopWords }

// IsStopWord reports whether w is a stop word, ignoring case.
func (kb *Base) IsStopWord(w string) bool {
	_, ok := kb.stopWords[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// PerformerContext returns words that place a name in a performer role.
func (kb *Base) PerformerContext() []string { return kb.doc.PerformerContext }

// SearchKeywords returns words that make a message search-shaped.
func (kb *Base) SearchKeywords() []string { return kb.doc.SearchKeywords }

// DelistedMarkers returns the markers of withdrawn listings.
func (kb *Base) DelistedMarkers() []string { return kb.doc.DelistedMarkers }

// IsDelisted reports whether the event's title or description carries a
// delisted marker.
func (kb *Base) IsDelisted(e *entities.Event) bool {
	if e == nil {
		return true
	}
	return utils.ContainsAny(e.Title, kb.doc.DelistedMarkers) ||
		utils.ContainsAny(e.Description, kb.doc.DelistedMarkers)
}
