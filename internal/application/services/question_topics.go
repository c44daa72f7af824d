package services

import (
	"regexp"
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// topicKeywords is consulted in order, so price wins over time in
// "票價什麼時候調整".
var topicKeywords = []struct {
	topic entities.QuestionTopic
	words []string
}{
	{entities.TopicPrice, []string{"票價", "多少錢", "價格", "價錢", "費用", "幾錢", "how much", "price", "prices", "cost", "fare"}},
	{entities.TopicTime, []string{"幾點", "什麼時候", "何時", "時間", "日期", "哪天", "哪一天", "場次", "when", "what time", "what date", "schedule", "date", "dates"}},
	{entities.TopicVenue, []string{"在哪裡", "在哪", "哪裡", "地點", "場地", "地址", "場館", "怎麼去", "where", "venue", "location", "address"}},
	{entities.TopicArtist, []string{"誰演", "誰唱", "演出者", "表演者", "卡司", "陣容", "歌手", "演員", "who", "performer", "performers", "artist", "artists", "cast", "lineup"}},
	{entities.TopicDetails, []string{"詳情", "詳細", "介紹", "內容", "資訊", "細節", "details", "detail", "more info", "information", "about it", "tell me more"}},
}

// demonstratives refer back to the event in context.
var demonstratives = []string{
	"這場", "那場", "這個", "那個", "這齣", "那齣", "這檔", "該場", "這一場", "那一場", "此活動", "這活動", "這演出", "它",
	"this show", "that show", "this event", "that event", "this one", "that one",
	"this concert", "that concert", "this performance", "that performance", "it",
}

var reQuoted = regexp.MustCompile(`「([^」]+)」|『([^』]+)』|《([^》]+)》|【([^】]+)】|“([^”]+)”|"([^"]+)"`)

// detectTopic returns the first question topic named in text.
func detectTopic(text string) entities.QuestionTopic {
	for _, t := range topicKeywords {
		if kwMatch.containsAny(text, t.words) {
			return t.topic
		}
	}
	return entities.TopicNone
}

func hasDemonstrative(text string) bool {
	return kwMatch.containsAny(text, demonstratives)
}

// isBareReference reports whether text is nothing but a demonstrative.
func isBareReference(text string) bool {
	trimmed := strings.Trim(strings.ToLower(strings.TrimSpace(text)), "?？!！。.,，的")
	for _, d := range demonstratives {
		if trimmed == d {
			return true
		}
	}
	return false
}

// extractQuoted returns the first bracketed or quoted title in text.
func extractQuoted(text string) string {
	m := reQuoted.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g = strings.TrimSpace(g); g != "" {
			return g
		}
	}
	return ""
}
