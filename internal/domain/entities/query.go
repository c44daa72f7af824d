package entities

import "time"

// QueryType is the facet a parsed message resolved to.
type QueryType string

const (
	QueryTypeArtist   QueryType = "artist"
	QueryTypeVenue    QueryType = "venue"
	QueryTypeCategory QueryType = "category"
	QueryTypeDate     QueryType = "date"
	QueryTypeGeneral  QueryType = "general"
	QueryTypeMixed    QueryType = "mixed"
	QueryTypeFollowUp QueryType = "follow-up"
)

// QuestionTopic is what a follow-up or ASK_* question is about.
type QuestionTopic string

const (
	TopicNone    QuestionTopic = ""
	TopicTime    QuestionTopic = "time"
	TopicPrice   QuestionTopic = "price"
	TopicVenue   QuestionTopic = "venue"
	TopicArtist  QuestionTopic = "artist"
	TopicDetails QuestionTopic = "details"
)

// DateRange is an inclusive range; To is normalized to end of day.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ArtistSource records how an artist name was recognized.
type ArtistSource string

const (
	ArtistSourceKnowledge ArtistSource = "knowledge"
	ArtistSourceHeuristic ArtistSource = "heuristic"
)

// ArtistInfo describes the artist a query resolved to.
type ArtistInfo struct {
	Name    string       `json:"name"`
	Aliases []string     `json:"aliases,omitempty"`
	Source  ArtistSource `json:"source"`
}

// ParsedQuery is the structured reading of one message. Never persisted.
type ParsedQuery struct {
	QueryType     QueryType     `json:"queryType"`
	Artists       []string      `json:"artists,omitempty"`
	Venues        []string      `json:"venues,omitempty"`
	Categories    []string      `json:"categories,omitempty"`
	DateRange     *DateRange    `json:"dateRange,omitempty"`
	Keywords      []string      `json:"keywords,omitempty"`
	ArtistInfo    *ArtistInfo   `json:"artistInfo,omitempty"`
	FollowUpTopic QuestionTopic `json:"followUpTopic,omitempty"`
	QuotedTitle   string        `json:"quotedTitle,omitempty"`
	Raw           string        `json:"raw"`
}

// HasFacets reports whether any entity or date was extracted.
func (q *ParsedQuery) HasFacets() bool {
	return q != nil && (len(q.Artists) > 0 || len(q.Venues) > 0 ||
		len(q.Categories) > 0 || q.DateRange != nil)
}

// IsFollowUp reports whether the query refers back to context.
func (q *ParsedQuery) IsFollowUp() bool {
	return q != nil && q.QueryType == QueryTypeFollowUp
}
