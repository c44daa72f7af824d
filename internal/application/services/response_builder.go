package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

const maxDatesShown = 3

// BuiltResponse is templated reply text, or a request to generate one.
type BuiltResponse struct {
	Text   string
	UseLLM bool
}

// ResponseBuilder renders deterministic replies. Nothing here calls the
// generator.
type ResponseBuilder struct {
	kb           *knowledge.Base
	loc          *time.Location
	displayLimit int
	externalURL  string
}

func NewResponseBuilder(kb *knowledge.Base, loc *time.Location, displayLimit int, externalURL string) *ResponseBuilder {
	if loc == nil {
		loc = time.UTC
	}
	if displayLimit <= 0 {
		displayLimit = 5
	}
	return &ResponseBuilder{kb: kb, loc: loc, displayLimit: displayLimit, externalURL: externalURL}
}

func pick(locale entities.Locale, zh, en string) string {
	if locale == entities.LocaleEn {
		return en
	}
	return zh
}

// BuildStructuredResponse lists the results, or asks for generation when
// there are none.
func (b *ResponseBuilder) BuildStructuredResponse(q *entities.ParsedQuery, result *SearchResult, locale entities.Locale) BuiltResponse {
	if result == nil || len(result.Events) == 0 {
		return BuiltResponse{UseLLM: true}
	}

	var sb strings.Builder
	total := result.Total
	if total < len(result.Events) {
		total = len(result.Events)
	}
	if len(result.Events) == 1 {
		sb.WriteString(pick(locale, "為您找到這場活動：\n\n", "I found this event:\n\n"))
		sb.WriteString(b.EventDetails(result.Events[0], locale))
		return BuiltResponse{Text: sb.String()}
	}

	if subject := querySubject(q); subject != "" {
		if locale == entities.LocaleEn {
			fmt.Fprintf(&sb, "Found %d events for \"%s\":\n\n", total, subject)
		} else {
			fmt.Fprintf(&sb, "「%s」共找到 %d 場活動：\n\n", subject, total)
		}
	} else {
		sb.WriteString(fmt.Sprintf(pick(locale, "共找到 %d 場活動：\n\n", "Found %d events:\n\n"), total))
	}
	sb.WriteString(b.EventList(result.Events, locale))
	return BuiltResponse{Text: sb.String()}
}

func querySubject(q *entities.ParsedQuery) string {
	if q == nil {
		return ""
	}
	switch {
	case q.QuotedTitle != "":
		return q.QuotedTitle
	case len(q.Artists) > 0:
		return strings.Join(q.Artists, "、")
	case len(q.Venues) > 0:
		return strings.Join(q.Venues, "、")
	case len(q.Categories) > 0:
		return strings.Join(q.Categories, "、")
	}
	return ""
}

// EventList renders a numbered summary of up to displayLimit events.
func (b *ResponseBuilder) EventList(events []*entities.Event, locale entities.Locale) string {
	var sb strings.Builder
	shown := events
	if len(shown) > b.displayLimit {
		shown = shown[:b.displayLimit]
	}
	for i, e := range shown {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e.Title)
		if e.Subtitle != "" {
			fmt.Fprintf(&sb, "   %s\n", e.Subtitle)
		}
		if len(e.Artists) > 0 {
			fmt.Fprintf(&sb, "   🎤 %s\n", strings.Join(e.Artists, "、"))
		}
		if e.Venue != "" {
			fmt.Fprintf(&sb, "   📍 %s\n", e.Venue)
		}
		if label := b.categoryLabel(e.Category, locale); label != "" {
			fmt.Fprintf(&sb, "   🏷 %s\n", label)
		}
		if dates := b.formatDates(e, locale); dates != "" {
			fmt.Fprintf(&sb, "   🗓 %s\n", dates)
		}
		if e.URL != "" {
			fmt.Fprintf(&sb, "   🔗 %s\n", e.URL)
		}
	}
	if rest := len(events) - len(shown); rest > 0 {
		sb.WriteString(fmt.Sprintf(pick(locale, "\n還有 %d 場活動，可以再縮小搜尋範圍。\n", "\n%d more events. Try narrowing your search.\n"), rest))
	}
	if len(shown) > 1 {
		sb.WriteString(pick(locale, "\n輸入編號（例如「2」）查看活動詳情。", "\nReply with a number (e.g. \"2\") to see details."))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// EventDetails renders every field the event carries.
func (b *ResponseBuilder) EventDetails(e *entities.Event, locale entities.Locale) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎫 %s\n", e.Title)
	if e.Subtitle != "" {
		fmt.Fprintf(&sb, "%s\n", e.Subtitle)
	}
	if len(e.Artists) > 0 {
		fmt.Fprintf(&sb, "🎤 %s%s\n", pick(locale, "演出者：", "Performers: "), strings.Join(e.Artists, "、"))
	}
	if e.Venue != "" {
		fmt.Fprintf(&sb, "📍 %s%s\n", pick(locale, "地點：", "Venue: "), e.Venue)
	}
	if label := b.categoryLabel(e.Category, locale); label != "" {
		fmt.Fprintf(&sb, "🏷 %s%s\n", pick(locale, "類別：", "Category: "), label)
	}
	if len(e.Dates) > 0 {
		fmt.Fprintf(&sb, "🗓 %s%s\n", pick(locale, "時間：", "Dates: "), b.allDates(e, locale))
	}
	if e.PriceInfo != "" {
		fmt.Fprintf(&sb, "💰 %s%s\n", pick(locale, "票價：", "Prices: "), e.PriceInfo)
	}
	if e.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", utils.TruncateRunes(strings.TrimSpace(e.Description), 200))
	}
	if e.URL != "" {
		fmt.Fprintf(&sb, "\n🔗 %s%s", pick(locale, "購票連結：", "Tickets: "), e.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// AnswerTopic answers a question about one event from its fields. ok is
// false when the fields cannot answer it.
func (b *ResponseBuilder) AnswerTopic(e *entities.Event, topic entities.QuestionTopic, locale entities.Locale) (string, bool) {
	if e == nil {
		return "", false
	}
	title := e.Title
	switch topic {
	case entities.TopicTime:
		if len(e.Dates) == 0 {
			return "", false
		}
		return fmt.Sprintf(pick(locale, "「%s」的演出時間：\n%s", "Show times for \"%s\":\n%s"), title, b.dateLines(e, locale)), true
	case entities.TopicPrice:
		if e.PriceInfo == "" {
			if e.URL == "" {
				return "", false
			}
			return fmt.Sprintf(pick(locale, "「%s」的票價請以售票頁面為準：%s", "Prices for \"%s\" are listed on the ticketing page: %s"), title, e.URL), true
		}
		text := fmt.Sprintf(pick(locale, "「%s」的票價：%s", "Prices for \"%s\": %s"), title, e.PriceInfo)
		if e.URL != "" {
			text += "\n🔗 " + e.URL
		}
		return text, true
	case entities.TopicVenue:
		if e.Venue == "" {
			return "", false
		}
		venue := e.Venue
		if v, ok := b.kb.LookupVenue(e.Venue); ok && v.City != "" {
			venue += "（" + v.City + "）"
		}
		return fmt.Sprintf(pick(locale, "「%s」的演出地點：%s", "\"%s\" takes place at %s"), title, venue), true
	case entities.TopicArtist:
		if len(e.Artists) == 0 {
			return "", false
		}
		return fmt.Sprintf(pick(locale, "「%s」的演出者：%s", "Performers of \"%s\": %s"), title, strings.Join(e.Artists, "、")), true
	case entities.TopicDetails:
		return b.EventDetails(e, locale), true
	}
	return "", false
}

// AnswerListTopic answers one topic for every listed event.
func (b *ResponseBuilder) AnswerListTopic(events []*entities.Event, topic entities.QuestionTopic, locale entities.Locale) (string, bool) {
	if len(events) == 0 || topic == entities.TopicNone {
		return "", false
	}
	if topic == entities.TopicDetails {
		return b.EventList(events, locale), true
	}

	shown := events
	if len(shown) > b.displayLimit {
		shown = shown[:b.displayLimit]
	}
	var sb strings.Builder
	answered := false
	for i, e := range shown {
		line := pick(locale, "（未提供）", "(not listed)")
		switch topic {
		case entities.TopicTime:
			if d := b.formatDates(e, locale); d != "" {
				line, answered = d, true
			}
		case entities.TopicPrice:
			if e.PriceInfo != "" {
				line, answered = e.PriceInfo, true
			}
		case entities.TopicVenue:
			if e.Venue != "" {
				line, answered = e.Venue, true
			}
		case entities.TopicArtist:
			if len(e.Artists) > 0 {
				line, answered = strings.Join(e.Artists, "、"), true
			}
		}
		fmt.Fprintf(&sb, "%d. %s：%s\n", i+1, e.Title, line)
	}
	if !answered {
		return "", false
	}
	sb.WriteString(pick(locale, "\n輸入編號查看單場詳情。", "\nReply with a number to open one event."))
	return sb.String(), true
}

func (b *ResponseBuilder) MainMenu(locale entities.Locale) string {
	return pick(locale,
		"👋 您好！我是售票資訊小幫手，可以幫您：\n"+
			"• 搜尋活動：輸入藝人、場館、類型或日期，例如「周杰倫演唱會」「這週末 國家音樂廳」\n"+
			"• 查詢活動細節：選定活動後問「幾點開始」「票價多少」\n"+
			"• 常見問題：退票、付款、取票\n"+
			"• 收藏活動：選定活動後點「加入收藏」\n\n"+
			"隨時輸入「主選單」回到這裡，或「清除」重新開始。",
		"👋 Hi! I'm the ticketing assistant. I can help you:\n"+
			"• Search events by artist, venue, category or date, e.g. \"Lang Lang recital\" or \"this weekend National Concert Hall\"\n"+
			"• Ask about a selected event: \"what time does it start\", \"how much are tickets\"\n"+
			"• Answer FAQs about refunds, payment and ticket pickup\n"+
			"• Save events to your favorites\n\n"+
			"Type \"menu\" to come back here or \"reset\" to start over.")
}

func (b *ResponseBuilder) FAQAnswer(entry *entities.FAQEntry, locale entities.Locale) string {
	if entry == nil {
		return b.FAQList(locale)
	}
	return "💡 " + entry.Answer(locale)
}

// FAQList names the topics the FAQ table covers.
func (b *ResponseBuilder) FAQList(locale entities.Locale) string {
	var sb strings.Builder
	sb.WriteString(pick(locale, "常見問題，直接輸入關鍵字即可查詢：\n", "Frequently asked questions. Type a keyword to ask:\n"))
	for _, f := range b.kb.FAQ() {
		if len(f.Keywords) == 0 {
			continue
		}
		keyword := f.Keywords[0]
		if locale == entities.LocaleEn {
			for _, k := range f.Keywords {
				if !utils.ContainsHan(k) {
					keyword = k
					break
				}
			}
		}
		fmt.Fprintf(&sb, "• %s\n", keyword)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *ResponseBuilder) Favorites(favorites []*entities.Favorite, locale entities.Locale) string {
	if len(favorites) == 0 {
		return pick(locale, "您的收藏清單目前是空的。選定活動後點「⭐ 加入收藏」即可收藏。", "Your favorites list is empty. Select an event and tap \"⭐ Save to favorites\".")
	}
	var sb strings.Builder
	sb.WriteString(pick(locale, "⭐ 您的收藏：\n", "⭐ Your favorites:\n"))
	for i, f := range favorites {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f.Title)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *ResponseBuilder) FavoriteAdded(e *entities.Event, already bool, locale entities.Locale) string {
	if already {
		return fmt.Sprintf(pick(locale, "「%s」已經在您的收藏裡了。", "\"%s\" is already in your favorites."), e.Title)
	}
	return fmt.Sprintf(pick(locale, "⭐ 已將「%s」加入收藏。", "⭐ Saved \"%s\" to your favorites."), e.Title)
}

func (b *ResponseBuilder) Cleared(locale entities.Locale) string {
	return pick(locale, "已清除對話紀錄，我們重新開始吧！想找什麼活動呢？", "All cleared. Let's start over. What are you looking for?")
}

// NoAction explains what the user can do when a quick reply had nothing
// to act on.
func (b *ResponseBuilder) NoAction(kind string, locale entities.Locale) string {
	if kind == string(entities.QuickReplySearch) {
		return pick(locale, "請輸入想找的藝人、場館、類型或日期。", "Tell me an artist, venue, category or date to search for.")
	}
	return pick(locale, "請先搜尋並選擇一場活動，例如輸入「五月天演唱會」。", "Search for and select an event first, e.g. \"Coldplay concert\".")
}

// NotFound is the deterministic no-result reply.
func (b *ResponseBuilder) NotFound(q *entities.ParsedQuery, locale entities.Locale) string {
	subject := querySubject(q)
	if subject == "" && q != nil {
		subject = q.Raw
	}
	text := pick(locale, "抱歉，目前沒有找到相關活動。可以試試其他藝人、場館或日期。", "Sorry, I couldn't find any matching events. Try another artist, venue or date.")
	if link := b.ExternalSearchLink(subject); link != "" {
		text += "\n" + pick(locale, "您也可以在這裡搜尋：", "You can also search here: ") + link
	}
	return text
}

// Apology is the reply for a failed generator call, one text per failure
// kind.
func (b *ResponseBuilder) Apology(kind providers.GeneratorFailure, query string, locale entities.Locale) string {
	var text string
	switch kind {
	case providers.GeneratorFailureRateLimit:
		text = pick(locale, "抱歉，目前詢問人數較多，請稍候一分鐘再試。", "Sorry, I'm receiving too many requests right now. Please try again in a minute.")
	case providers.GeneratorFailureUnavailable:
		text = pick(locale, "抱歉，智慧回覆服務暫時無法使用，請稍後再試。", "Sorry, the answering service is temporarily unavailable. Please try again later.")
	case providers.GeneratorFailureQuota:
		text = pick(locale, "抱歉，今日的智慧回覆額度已用完，請明天再試。", "Sorry, today's answering quota has been used up. Please try again tomorrow.")
	default:
		text = pick(locale, "抱歉，處理您的訊息時發生問題。", "Sorry, something went wrong while handling your message.")
	}
	if link := b.ExternalSearchLink(query); link != "" {
		text += "\n" + pick(locale, "您可以先在這裡搜尋：", "Meanwhile you can search here: ") + link
	}
	return text
}

// ExternalSearchLink points at the configured web search for query.
func (b *ResponseBuilder) ExternalSearchLink(query string) string {
	if b.externalURL == "" {
		return ""
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return strings.TrimSuffix(strings.TrimSuffix(b.externalURL, "?q="), "=")
	}
	return b.externalURL + url.QueryEscape(query)
}

func (b *ResponseBuilder) categoryLabel(name string, locale entities.Locale) string {
	if name == "" {
		return ""
	}
	if c, ok := b.kb.LookupCategory(name); ok {
		if label := c.Label(locale); label != "" {
			return label
		}
	}
	return name
}

// formatDates shows the first few dates and how many remain.
func (b *ResponseBuilder) formatDates(e *entities.Event, locale entities.Locale) string {
	if len(e.Dates) == 0 {
		return ""
	}
	dates := sortedDates(e)
	n := len(dates)
	if n > maxDatesShown {
		dates = dates[:maxDatesShown]
	}
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = b.formatDate(d, locale)
	}
	out := strings.Join(parts, pick(locale, "、", ", "))
	switch {
	case n <= maxDatesShown:
	case locale == entities.LocaleEn:
		out += fmt.Sprintf(" and %d more", n-maxDatesShown)
	default:
		out += fmt.Sprintf(" 等 %d 場", n)
	}
	return out
}

func (b *ResponseBuilder) allDates(e *entities.Event, locale entities.Locale) string {
	dates := sortedDates(e)
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = b.formatDate(d, locale)
	}
	return strings.Join(parts, pick(locale, "、", ", "))
}

func (b *ResponseBuilder) dateLines(e *entities.Event, locale entities.Locale) string {
	var sb strings.Builder
	for _, d := range sortedDates(e) {
		fmt.Fprintf(&sb, "• %s\n", b.formatDate(d, locale))
	}
	return strings.TrimRight(sb.String(), "\n")
}

var zhWeekdays = [...]string{"日", "一", "二", "三", "四", "五", "六"}

func (b *ResponseBuilder) formatDate(d entities.EventDate, locale entities.Locale) string {
	t := d.Date.In(b.loc)
	var out string
	if locale == entities.LocaleEn {
		out = t.Format("Mon, Jan 2 2006")
	} else {
		out = fmt.Sprintf("%d/%02d/%02d（%s）", t.Year(), int(t.Month()), t.Day(), zhWeekdays[t.Weekday()])
	}
	if t.Hour() != 0 || t.Minute() != 0 {
		out += " " + t.Format("15:04")
	}
	if d.Label != "" {
		out += " " + d.Label
	}
	return out
}

func sortedDates(e *entities.Event) []entities.EventDate {
	dates := make([]entities.EventDate, len(e.Dates))
	copy(dates, e.Dates)
	sort.SliceStable(dates, func(i, j int) bool { return dates[i].Date.Before(dates[j].Date) })
	return dates
}
