package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

const monthAlt = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

const fullMonthAlt = `january|february|march|april|may|june|july|august|september|october|november|december`

// dateToken matches one absolute date in any supported spelling.
const dateToken = `(?:\d{4}[-/.]\d{1,2}[-/.]\d{1,2}\b` +
	`|(?:\d{4}年)?\d{1,2}月\d{1,2}[日號]?` +
	`|\b\d{1,2}/\d{1,2}\b` +
	`|\b(?:` + monthAlt + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s*\d{4}\b)?` +
	`|\b\d{1,2}(?:st|nd|rd|th)?\s+(?:` + monthAlt + `)\b(?:,?\s*\d{4}\b)?)`

var (
	reDateRange         = regexp.MustCompile(`(?i)(` + dateToken + `)\s*(?:~|-|–|到|至|\bto\b|\buntil\b)\s*(` + dateToken + `)`)
	reBetweenRange      = regexp.MustCompile(`(?i)\bbetween\s+(` + dateToken + `)\s+and\s+(` + dateToken + `)`)
	reZhSameMonthRange  = regexp.MustCompile(`(?:(\d{4})年)?(\d{1,2})月(\d{1,2})[日號]?\s*(?:~|-|–|到|至)\s*(\d{1,2})[日號]`)
	reEnSameMonthRange  = regexp.MustCompile(`(?i)\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|~|to)\s*(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4})\b)?`)
	reSingleDate        = regexp.MustCompile(`(?i)` + dateToken)
	reZhMonthOnly       = regexp.MustCompile(`(?:(\d{4})年)?(\d{1,2})月份?`)
	reEnMonthOnlyPrefix = regexp.MustCompile(`(?i)\b(?:in|during)\s+(` + fullMonthAlt + `)\b(?:\s+(\d{4})\b)?`)
	reEnMonthYear       = regexp.MustCompile(`(?i)\b(` + fullMonthAlt + `)\s+(\d{4})\b`)

	reTokISO  = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reTokZh   = regexp.MustCompile(`^(?:(\d{4})年)?(\d{1,2})月(\d{1,2})[日號]?$`)
	reTokMD   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	reTokEnMD = regexp.MustCompile(`(?i)^(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
	reTokEnDM = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)(?:,?\s*(\d{4}))?$`)
)

// relativeTerm is a phrase resolved against the clock. Longer phrases are
// listed before their prefixes.
type relativeTerm struct {
	phrases []string
	resolve func(now time.Time) (time.Time, time.Time)
}

// DateParser extracts one date range from free text. The clock is
// injectable so relative phrases are testable.
type DateParser struct {
	now      func() time.Time
	loc      *time.Location
	relative []relativeTerm
}

// NewDateParser resolves dates in loc; now defaults to time.Now.
func NewDateParser(loc *time.Location, now func() time.Time) *DateParser {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	p := &DateParser{now: now, loc: loc}
	p.relative = []relativeTerm{
		{[]string{"大後天", "three days from now"}, p.dayOffset(3)},
		{[]string{"後天", "day after tomorrow"}, p.dayOffset(2)},
		{[]string{"明天", "明日", "明晚", "tomorrow"}, p.dayOffset(1)},
		{[]string{"今天", "今日", "今晚", "tonight", "today"}, p.dayOffset(0)},
		{[]string{"下週末", "下周末", "下個週末", "next weekend"}, p.weekend(1)},
		{[]string{"這週末", "這周末", "本週末", "本周末", "這個週末", "週末", "周末", "this weekend", "weekend"}, p.weekend(0)},
		{[]string{"下週", "下周", "下星期", "下禮拜", "next week"}, p.week(1)},
		{[]string{"這週", "這周", "本週", "本周", "這星期", "這禮拜", "this week"}, p.week(0)},
		{[]string{"下個月", "下月", "next month"}, p.month(1)},
		{[]string{"這個月", "本月", "這月", "this month"}, p.month(0)},
	}
	return p
}

// Extract returns the first date range in text and the byte span it came from.
func (p *DateParser) Extract(text string) (*entities.DateRange, int, int, bool) {
	now := p.now().In(p.loc)

	if m := reBetweenRange.FindStringSubmatchIndex(text); m != nil {
		if dr, ok := p.rangeFromTokens(text[m[2]:m[3]], text[m[4]:m[5]], now); ok {
			return dr, m[0], m[1], true
		}
	}
	if m := reDateRange.FindStringSubmatchIndex(text); m != nil {
		if dr, ok := p.rangeFromTokens(text[m[2]:m[3]], text[m[4]:m[5]], now); ok {
			return dr, m[0], m[1], true
		}
	}
	if m := reZhSameMonthRange.FindStringSubmatchIndex(text); m != nil {
		year := groupInt(text, m, 1, now.Year())
		month := groupInt(text, m, 2, 0)
		if dr, ok := p.span(year, month, groupInt(text, m, 3, 0), year, month, groupInt(text, m, 4, 0)); ok {
			return dr, m[0], m[1], true
		}
	}
	if m := reEnSameMonthRange.FindStringSubmatchIndex(text); m != nil {
		year := groupInt(text, m, 4, now.Year())
		month := monthNumber(text[m[2]:m[3]])
		if dr, ok := p.span(year, month, groupInt(text, m, 2, 0), year, month, groupInt(text, m, 3, 0)); ok {
			return dr, m[0], m[1], true
		}
	}
	if m := reSingleDate.FindStringIndex(text); m != nil {
		if d, ok := p.parseToken(text[m[0]:m[1]], now.Year()); ok {
			return p.dayRange(d, d), m[0], m[1], true
		}
	}
	if m := reZhMonthOnly.FindStringSubmatchIndex(text); m != nil {
		if dr, ok := p.monthRange(groupInt(text, m, 1, now.Year()), groupInt(text, m, 2, 0)); ok {
			return dr, m[0], m[1], true
		}
	}
	for _, re := range []*regexp.Regexp{reEnMonthOnlyPrefix, reEnMonthYear} {
		if m := re.FindStringSubmatchIndex(text); m != nil {
			if dr, ok := p.monthRange(groupInt(text, m, 2, now.Year()), monthNumber(text[m[2]:m[3]])); ok {
				return dr, m[0], m[1], true
			}
		}
	}

	for _, term := range p.relative {
		for _, phrase := range term.phrases {
			start, end, ok := kwMatch.find(text, phrase)
			if !ok {
				continue
			}
			from, to := term.resolve(now)
			return p.dayRange(from, to), start, end, true
		}
	}

	return nil, 0, 0, false
}

func (p *DateParser) rangeFromTokens(left, right string, now time.Time) (*entities.DateRange, bool) {
	from, ok := p.parseToken(left, now.Year())
	if !ok {
		return nil, false
	}
	// A right side without a year inherits the left side's year, or the
	// next one when the range crosses New Year ("Dec 31 - Jan 2").
	to, ok := p.parseToken(right, from.Year())
	if !ok {
		return nil, false
	}
	if to.Before(from) {
		next, _ := p.parseToken(right, from.Year()+1)
		if next.Equal(to) || next.Before(from) {
			return nil, false
		}
		to = next
	}
	return p.dayRange(from, to), true
}

func (p *DateParser) parseToken(tok string, defaultYear int) (time.Time, bool) {
	tok = strings.TrimSpace(tok)
	if m := reTokISO.FindStringSubmatch(tok); m != nil {
		return p.date(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reTokZh.FindStringSubmatch(tok); m != nil {
		year := defaultYear
		if m[1] != "" {
			year = atoi(m[1])
		}
		return p.date(year, atoi(m[2]), atoi(m[3]))
	}
	if m := reTokMD.FindStringSubmatch(tok); m != nil {
		return p.date(defaultYear, atoi(m[1]), atoi(m[2]))
	}
	if m := reTokEnMD.FindStringSubmatch(tok); m != nil {
		year := defaultYear
		if m[3] != "" {
			year = atoi(m[3])
		}
		return p.date(year, monthNumber(m[1]), atoi(m[2]))
	}
	if m := reTokEnDM.FindStringSubmatch(tok); m != nil {
		year := defaultYear
		if m[3] != "" {
			year = atoi(m[3])
		}
		return p.date(year, monthNumber(m[2]), atoi(m[1]))
	}
	return time.Time{}, false
}

// date builds a calendar date, rejecting overflow such as 2/30.
func (p *DateParser) date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func (p *DateParser) span(y1, m1, d1, y2, m2, d2 int) (*entities.DateRange, bool) {
	from, ok := p.date(y1, m1, d1)
	if !ok {
		return nil, false
	}
	to, ok := p.date(y2, m2, d2)
	if !ok || to.Before(from) {
		return nil, false
	}
	return p.dayRange(from, to), true
}

func (p *DateParser) monthRange(year, month int) (*entities.DateRange, bool) {
	first, ok := p.date(year, month, 1)
	if !ok {
		return nil, false
	}
	return p.dayRange(first, first.AddDate(0, 1, -1)), true
}

// dayRange spans from the start of from's day to the end of to's day.
func (p *DateParser) dayRange(from, to time.Time) *entities.DateRange {
	return &entities.DateRange{From: startOfDay(from, p.loc), To: endOfDay(to, p.loc)}
}

func (p *DateParser) dayOffset(days int) func(time.Time) (time.Time, time.Time) {
	return func(now time.Time) (time.Time, time.Time) {
		d := now.AddDate(0, 0, days)
		return d, d
	}
}

func (p *DateParser) week(offset int) func(time.Time) (time.Time, time.Time) {
	return func(now time.Time) (time.Time, time.Time) {
		back := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, 7*offset-back)
		return monday, monday.AddDate(0, 0, 6)
	}
}

func (p *DateParser) weekend(offset int) func(time.Time) (time.Time, time.Time) {
	return func(now time.Time) (time.Time, time.Time) {
		back := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, 7*offset-back)
		saturday, sunday := monday.AddDate(0, 0, 5), monday.AddDate(0, 0, 6)
		if offset == 0 && now.After(saturday) {
			saturday = now
		}
		return saturday, sunday
	}
}

func (p *DateParser) month(offset int) func(time.Time) (time.Time, time.Time) {
	return func(now time.Time) (time.Time, time.Time) {
		first := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, -1)
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

func monthNumber(name string) int {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	for i, prefix := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if strings.HasPrefix(name, prefix) {
			return i + 1
		}
	}
	return 0
}

// groupInt parses submatch group g of an index match, or returns def.
func groupInt(text string, m []int, g, def int) int {
	if 2*g+1 >= len(m) || m[2*g] < 0 {
		return def
	}
	return atoi(text[m[2*g]:m[2*g+1]])
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
