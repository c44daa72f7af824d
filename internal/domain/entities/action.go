package entities

// ActionType is the closed set of actions the state machine emits.
type ActionType string

const (
	ActionSearchEvents        ActionType = "SEARCH_EVENTS"
	ActionAnswerEventQuestion ActionType = "ANSWER_EVENT_QUESTION"
	ActionShowEventDetails    ActionType = "SHOW_EVENT_DETAILS"
	ActionShowEventList       ActionType = "SHOW_EVENT_LIST"
	ActionShowFAQ             ActionType = "SHOW_FAQ"
	ActionShowMainMenu        ActionType = "SHOW_MAIN_MENU"
	ActionClearSession        ActionType = "CLEAR_SESSION"
	ActionGeneralQuestion     ActionType = "GENERAL_QUESTION"
	ActionNoAction            ActionType = "NO_ACTION"
	ActionAddFavorite         ActionType = "ADD_FAVORITE"
	ActionShowFavorites       ActionType = "SHOW_FAVORITES"
)

// Action is what the orchestrator executes for a turn.
type Action struct {
	Type     ActionType    `json:"type"`
	Event    *Event        `json:"event,omitempty"`
	Events   []*Event      `json:"events,omitempty"`
	Index    int           `json:"index"`
	Question string        `json:"question,omitempty"`
	Topic    QuestionTopic `json:"topic,omitempty"`
	FAQ      *FAQEntry     `json:"faq,omitempty"`
	Query    *ParsedQuery  `json:"query,omitempty"`
}
