package services

import (
	"strings"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// quickReplyTokens maps the emoji prefix of a suggested reply back to its
// kind. The prefix alone identifies the token; the rest is a label or an
// argument.
var quickReplyTokens = []struct {
	prefix string
	kind   entities.QuickReplyKind
}{
	{"🔍", entities.QuickReplySearch},
	{"📋", entities.QuickReplyList},
	{"📑", entities.QuickReplyDetails},
	{"🕐", entities.QuickReplyTime},
	{"💰", entities.QuickReplyPrice},
	{"📍", entities.QuickReplyVenue},
	{"🎤", entities.QuickReplyArtist},
	{"❓", entities.QuickReplyFAQ},
	{"🏠", entities.QuickReplyMainMenu},
	{"⭐", entities.QuickReplyAddFavorite},
	{"📌", entities.QuickReplyShowFavorites},
	{"🗑", entities.QuickReplyClear},
}

var quickReplyLabels = map[entities.QuickReplyKind][2]string{
	entities.QuickReplySearch:        {"搜尋活動", "Search events"},
	entities.QuickReplyList:          {"回到列表", "Back to list"},
	entities.QuickReplyDetails:       {"活動詳情", "Details"},
	entities.QuickReplyTime:          {"演出時間", "Show times"},
	entities.QuickReplyPrice:         {"票價資訊", "Ticket prices"},
	entities.QuickReplyVenue:         {"演出地點", "Venue"},
	entities.QuickReplyArtist:        {"演出者", "Performers"},
	entities.QuickReplyFAQ:           {"常見問題", "FAQ"},
	entities.QuickReplyMainMenu:      {"主選單", "Main menu"},
	entities.QuickReplyAddFavorite:   {"加入收藏", "Save to favorites"},
	entities.QuickReplyShowFavorites: {"我的收藏", "My favorites"},
	entities.QuickReplyClear:         {"重新開始", "Start over"},
}

// parseQuickReply recognizes a quick-reply token and returns its argument.
func parseQuickReply(text string) (entities.QuickReplyKind, string, bool) {
	text = strings.TrimSpace(text)
	for _, t := range quickReplyTokens {
		if !strings.HasPrefix(text, t.prefix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(text, t.prefix))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "\ufe0f"))
		// A bare label carries no argument.
		for _, label := range quickReplyLabels[t.kind] {
			if strings.EqualFold(rest, label) {
				rest = ""
				break
			}
		}
		return t.kind, rest, true
	}
	return "", "", false
}

func quickReplyPrefix(kind entities.QuickReplyKind) string {
	for _, t := range quickReplyTokens {
		if t.kind == kind {
			return t.prefix
		}
	}
	return ""
}

// quickReplyItem builds the suggested reply for kind, optionally carrying
// an argument such as a search term.
func quickReplyItem(kind entities.QuickReplyKind, locale entities.Locale, arg string) entities.QuickReplyItem {
	labels := quickReplyLabels[kind]
	label := labels[0]
	if locale == entities.LocaleEn {
		label = labels[1]
	}
	text := quickReplyPrefix(kind) + " " + label
	if arg != "" {
		text = quickReplyPrefix(kind) + " " + arg
		label = arg
	}
	return entities.QuickReplyItem{Label: label, Text: text}
}

// SuggestedRepliesFor returns the quick replies that fit the state the turn
// ended in.
func SuggestedRepliesFor(session *entities.Session, locale entities.Locale) *entities.SuggestedReplies {
	var kinds []entities.QuickReplyKind
	switch session.State {
	case entities.SessionStateEventSelected:
		kinds = []entities.QuickReplyKind{
			entities.QuickReplyTime, entities.QuickReplyPrice, entities.QuickReplyVenue,
			entities.QuickReplyArtist, entities.QuickReplyDetails,
		}
		if ev := session.Context.SelectedEvent; ev != nil && !session.IsFavorite(ev.EventID) {
			kinds = append(kinds, entities.QuickReplyAddFavorite)
		}
		if len(session.Context.LastSearchResults) > 1 {
			kinds = append(kinds, entities.QuickReplyList)
		}
		kinds = append(kinds, entities.QuickReplyMainMenu)
	case entities.SessionStateEventList:
		kinds = []entities.QuickReplyKind{entities.QuickReplyDetails, entities.QuickReplyTime, entities.QuickReplyPrice, entities.QuickReplyMainMenu}
	case entities.SessionStateFAQMode:
		kinds = []entities.QuickReplyKind{entities.QuickReplyFAQ, entities.QuickReplySearch, entities.QuickReplyMainMenu}
	default:
		kinds = []entities.QuickReplyKind{entities.QuickReplySearch, entities.QuickReplyFAQ, entities.QuickReplyShowFavorites}
	}

	items := make([]entities.QuickReplyItem, 0, len(kinds))
	for _, k := range kinds {
		items = append(items, quickReplyItem(k, locale, ""))
	}
	return &entities.SuggestedReplies{Items: items}
}
