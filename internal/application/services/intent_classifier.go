package services

import (
	"regexp"
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

var globalCommands = map[string]entities.GlobalCommand{
	"主選單": entities.CommandMainMenu, "選單": entities.CommandMainMenu, "回主選單": entities.CommandMainMenu,
	"menu": entities.CommandMainMenu, "main menu": entities.CommandMainMenu, "/menu": entities.CommandMainMenu,
	"/start": entities.CommandMainMenu, "start": entities.CommandMainMenu, "開始": entities.CommandMainMenu,
	"幫助": entities.CommandHelp, "說明": entities.CommandHelp, "使用說明": entities.CommandHelp, "怎麼用": entities.CommandHelp,
	"help": entities.CommandHelp, "/help": entities.CommandHelp,
	"清除": entities.CommandClear, "重新開始": entities.CommandClear, "重來": entities.CommandClear,
	"clear": entities.CommandClear, "reset": entities.CommandClear, "restart": entities.CommandClear,
	"start over": entities.CommandClear, "/clear": entities.CommandClear, "/reset": entities.CommandClear,
}

var chitChat = []string{
	"你好", "您好", "哈囉", "嗨", "早安", "午安", "晚安", "謝謝", "感謝", "掰掰", "再見", "好的", "了解", "ok", "okay",
	"hi", "hello", "hey", "thanks", "thank you", "bye", "goodbye", "good morning", "good night",
}

var (
	reSelectDigits  = regexp.MustCompile(`(?i)^(?:#|no\.?\s*|number\s*|選|第)?\s*(\d{1,2})\s*(?:個|場|號|項|檔|st|nd|rd|th)?(?:\s*one)?$`)
	reSelectZh      = regexp.MustCompile(`^(?:我要|選)?第([一二兩三四五六七八九十])(?:個|場|項|檔|號)?$`)
	reSelectEnglish = regexp.MustCompile(`(?i)^(?:the\s+)?(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|last)(?:\s+(?:one|event|show))?$`)
	reTrailingPunct = regexp.MustCompile(`[\s?？!！。.,，~]+$`)
)

var zhNumerals = map[string]int{"一": 1, "二": 2, "兩": 2, "三": 3, "四": 4, "五": 5, "六": 6, "七": 7, "八": 8, "九": 9, "十": 10}

var englishOrdinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// IntentClassifier reads one message against the current session. Checks
// run in a fixed order and the first hit wins.
type IntentClassifier struct {
	kb     *knowledge.Base
	parser *QueryParser
}

func NewIntentClassifier(kb *knowledge.Base, parser *QueryParser) *IntentClassifier {
	return &IntentClassifier{kb: kb, parser: parser}
}

func (c *IntentClassifier) Classify(message string, session *entities.Session) entities.Intent {
	text := utils.NormalizeInput(message)
	data := entities.IntentData{Text: text, SelectionIndex: -1}
	bare := strings.ToLower(reTrailingPunct.ReplaceAllString(text, ""))

	if cmd, ok := globalCommands[bare]; ok {
		data.Command = cmd
		return entities.Intent{Type: entities.IntentGlobalCommand, Data: data}
	}

	if kind, arg, ok := parseQuickReply(text); ok {
		data.QuickReply = kind
		data.QuickReplyArg = arg
		return entities.Intent{Type: entities.IntentQuickReply, Data: data}
	}

	if faq, ok := c.kb.MatchFAQ(text); ok {
		data.FAQ = faq
		return entities.Intent{Type: entities.IntentFAQ, Data: data}
	}

	query := c.parser.Parse(message)
	data.Query = query

	if inEventContext(session) {
		if idx, ok := parseSelection(bare, len(session.Context.LastSearchResults)); ok {
			data.SelectionIndex = idx
			return entities.Intent{Type: entities.IntentSelectEvent, Data: data}
		}
		if topic := detectTopic(text); topic != entities.TopicNone && c.aboutSelected(text, query, session) {
			return entities.Intent{Type: entities.AskIntentFor(topic), Data: data}
		}
	}

	if query.IsFollowUp() {
		return entities.Intent{Type: entities.IntentFollowUpQuestion, Data: data}
	}

	if isChitChat(bare) {
		return entities.Intent{Type: entities.IntentGeneral, Data: data}
	}

	if c.strongSearchSignal(text, query) {
		data.LooksLikeSearch = true
		return entities.Intent{Type: entities.IntentSearch, Data: data}
	}

	data.LooksLikeSearch = utils.CountHan(text) >= 2 || utils.CountLatin(text) >= 2
	return entities.Intent{Type: entities.IntentGeneral, Data: data}
}

func inEventContext(s *entities.Session) bool {
	return s != nil && (s.State == entities.SessionStateEventSelected || s.State == entities.SessionStateEventList)
}

// aboutSelected reports whether a topic question refers to the event in
// context: it carries a demonstrative, or names nothing else.
func (c *IntentClassifier) aboutSelected(text string, q *entities.ParsedQuery, s *entities.Session) bool {
	if hasDemonstrative(text) {
		return true
	}
	if q.IsFollowUp() {
		return q.QuotedTitle == "" || findByTitle(s.Context.LastSearchResults, q.QuotedTitle) >= 0
	}
	if len(q.Artists)+len(q.Venues)+len(q.Categories) == 0 {
		return true
	}
	ev := s.Context.SelectedEvent
	if ev == nil {
		return false
	}
	for _, a := range q.Artists {
		if !kwMatch.containsAny(strings.Join(append([]string{ev.Title, ev.Subtitle}, ev.Artists...), " / "), []string{a}) {
			return false
		}
	}
	return len(q.Venues)+len(q.Categories) == 0
}

func (c *IntentClassifier) strongSearchSignal(text string, q *entities.ParsedQuery) bool {
	if q.HasFacets() || q.QuotedTitle != "" {
		return true
	}
	if kwMatch.containsAny(text, c.kb.SearchKeywords()) {
		return true
	}
	for _, kw := range c.kb.VenueKeywords() {
		if kwMatch.contains(text, kw.Text) {
			return true
		}
	}
	return false
}

func isChitChat(bare string) bool {
	for _, w := range chitChat {
		if bare == w {
			return true
		}
	}
	return false
}

// parseSelection reads "2", "第二個" or "the second one" as a 0-based index
// into a list of n results.
func parseSelection(bare string, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	pos := 0
	if m := reSelectDigits.FindStringSubmatch(bare); m != nil {
		pos = atoi(m[1])
	} else if m := reSelectZh.FindStringSubmatch(bare); m != nil {
		pos = zhNumerals[m[1]]
	} else if m := reSelectEnglish.FindStringSubmatch(bare); m != nil {
		if strings.EqualFold(m[1], "last") {
			pos = n
		} else {
			pos = englishOrdinals[strings.ToLower(m[1])]
		}
	}
	if pos < 1 {
		return 0, false
	}
	return pos - 1, true
}

// findByTitle returns the index of the first event whose title or subtitle
// mentions title, or -1.
func findByTitle(events []*entities.Event, title string) int {
	key := utils.CompactKey(title)
	if key == "" {
		return -1
	}
	for i, e := range events {
		if strings.Contains(utils.CompactKey(e.Title), key) || strings.Contains(utils.CompactKey(e.Subtitle), key) {
			return i
		}
	}
	return -1
}
