package entities

// IntentType is the closed set of message intents.
type IntentType string

const (
	IntentGlobalCommand    IntentType = "GLOBAL_COMMAND"
	IntentQuickReply       IntentType = "QUICK_REPLY"
	IntentSearch           IntentType = "SEARCH"
	IntentFollowUpQuestion IntentType = "FOLLOW_UP_QUESTION"
	IntentAskTime          IntentType = "ASK_TIME"
	IntentAskPrice         IntentType = "ASK_PRICE"
	IntentAskVenue         IntentType = "ASK_VENUE"
	IntentAskArtist        IntentType = "ASK_ARTIST"
	IntentAskDetails       IntentType = "ASK_DETAILS"
	IntentFAQ              IntentType = "FAQ"
	IntentGeneral          IntentType = "GENERAL"
	IntentSelectEvent      IntentType = "SELECT_EVENT"
)

// AskIntentFor maps a question topic to its ASK_* intent.
func AskIntentFor(topic QuestionTopic) IntentType {
	switch topic {
	case TopicTime:
		return IntentAskTime
	case TopicPrice:
		return IntentAskPrice
	case TopicVenue:
		return IntentAskVenue
	case TopicArtist:
		return IntentAskArtist
	default:
		return IntentAskDetails
	}
}

// TopicOf returns the question topic of an ASK_* intent.
func (t IntentType) TopicOf() QuestionTopic {
	switch t {
	case IntentAskTime:
		return TopicTime
	case IntentAskPrice:
		return TopicPrice
	case IntentAskVenue:
		return TopicVenue
	case IntentAskArtist:
		return TopicArtist
	case IntentAskDetails:
		return TopicDetails
	}
	return TopicNone
}

// IsAsk reports whether t is one of the ASK_* intents.
func (t IntentType) IsAsk() bool {
	return t.TopicOf() != TopicNone
}

// GlobalCommand names a command that wins in every state.
type GlobalCommand string

const (
	CommandMainMenu GlobalCommand = "main_menu"
	CommandHelp     GlobalCommand = "help"
	CommandClear    GlobalCommand = "clear"
)

// QuickReplyKind names a structured quick-reply token.
type QuickReplyKind string

const (
	QuickReplySearch        QuickReplyKind = "search"
	QuickReplyDetails       QuickReplyKind = "details"
	QuickReplyList          QuickReplyKind = "list"
	QuickReplyTime          QuickReplyKind = "time"
	QuickReplyPrice         QuickReplyKind = "price"
	QuickReplyVenue         QuickReplyKind = "venue"
	QuickReplyArtist        QuickReplyKind = "artist"
	QuickReplyFAQ           QuickReplyKind = "faq"
	QuickReplyMainMenu      QuickReplyKind = "main_menu"
	QuickReplyAddFavorite   QuickReplyKind = "add_favorite"
	QuickReplyShowFavorites QuickReplyKind = "show_favorites"
	QuickReplyClear         QuickReplyKind = "clear"
)

// IntentData carries whatever the classifier extracted for the intent.
type IntentData struct {
	Command         GlobalCommand  `json:"command,omitempty"`
	QuickReply      QuickReplyKind `json:"quickReply,omitempty"`
	QuickReplyArg   string         `json:"quickReplyArg,omitempty"`
	FAQ             *FAQEntry      `json:"faq,omitempty"`
	SelectionIndex  int            `json:"selectionIndex"`
	Query           *ParsedQuery   `json:"query,omitempty"`
	LooksLikeSearch bool           `json:"looksLikeSearch"`
	Text            string         `json:"text"`
}

// Intent is the classifier's reading of one message.
type Intent struct {
	Type IntentType `json:"type"`
	Data IntentData `json:"data"`
}

// FAQEntry is one static FAQ rule with localized answers.
type FAQEntry struct {
	ID       string   `json:"id" yaml:"id"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	AnswerZh string   `json:"answerZh" yaml:"answer_zh"`
	AnswerEn string   `json:"answerEn" yaml:"answer_en"`
}

// Answer returns the answer text for locale.
func (f *FAQEntry) Answer(locale Locale) string {
	if locale == LocaleEn && f.AnswerEn != "" {
		return f.AnswerEn
	}
	return f.AnswerZh
}
