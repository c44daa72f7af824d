package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

const maxParaphraseDepth = 3

var (
	paraphrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?:請|麻煩)?(?:幫我|幫忙)?(?:介紹|說明|描述|講講|說說|告訴我)(?:一下)?(?:關於)?(.+?)(?:的(?:資訊|資料|內容|介紹))?[?？!！。]*$`),
		regexp.MustCompile(`^(?:請|麻煩)?(?:幫我|幫忙|我想|我要)?(?:找|搜尋|搜索|查詢|查|搜)(?:一下|看看)?(.+?)[?？!！。]*$`),
		regexp.MustCompile(`(?i)^(?:please\s+|can you\s+|could you\s+)?(?:introduce|describe|tell me (?:more )?about|give me (?:some )?info(?:rmation)? (?:on|about)|what do you know about)\s+(.+?)[?.!]*$`),
		regexp.MustCompile(`(?i)^(?:please\s+|can you\s+|could you\s+|help me\s+)?(?:find|search(?:\s+for)?|look\s+(?:up|for)|show)\s+(?:me\s+)?(.+?)[?.!]*$`),
	}

	reTitleGlyph = regexp.MustCompile(`[「」『』《》【】"“”]`)
	reYear       = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	reCapitalizedName = regexp.MustCompile(`\b[A-Z][A-Za-z0-9'&.-]*(?:\s+[A-Z][A-Za-z0-9'&.-]*)+\b`)
	reLowerPairName   = regexp.MustCompile(`(?i)\b(?:is there an?|are there(?: any)?|any|see|watch|want to see|hear)\s+([a-z][a-z'.-]+\s+[a-z][a-z'.-]+)\s+(?:show|shows|concert|concerts|tour|performance|performances|gig|gigs|live|tickets?)\b`)
	hanNamePatterns   = []*regexp.Regexp{
		regexp.MustCompile(`(?:有沒有|有没有|有無|想看|想聽|要看|要聽)(\p{Han}{2,6}?)的?(?:演唱會|音樂會|演出|表演|場次|門票|巡演|巡迴|見面會|專場|獨奏會)`),
		regexp.MustCompile(`(\p{Han}{2,6}?)的(?:演唱會|音樂會|演出|表演|巡演|巡迴|見面會|專場|獨奏會|門票)`),
		regexp.MustCompile(`(\p{Han}{2,6}?)(?:演唱會|巡迴演唱會|見面會|獨奏會|音樂會)`),
	}

	reResidualSplit = regexp.MustCompile(`[\s\p{P}\p{S}]+`)
)

// eventNouns mark a capitalized phrase as an event name rather than a person.
var eventNouns = map[string]struct{}{
	"recital": {}, "concert": {}, "concerts": {}, "tour": {}, "festival": {}, "live": {},
	"show": {}, "gala": {}, "night": {}, "symphony": {}, "orchestra": {}, "musical": {},
	"opera": {}, "exhibition": {}, "world": {}, "season": {}, "tickets": {}, "ticket": {},
}

type parseState struct {
	text    string
	rest    string
	depth   int
	q       *entities.ParsedQuery
	claimed []string
	perf    bool
	catHits []knowledge.Keyword
}

// claim removes rest[start:end] and remembers it so later rules skip it.
func (st *parseState) claim(start, end int) {
	st.claimed = append(st.claimed, st.rest[start:end])
	st.rest = cut(st.rest, start, end)
}

type parseRule struct {
	name  string
	apply func(*parseState) (decisive bool)
}

// QueryParser turns one message into a ParsedQuery. Rules run in order and
// the first decisive rule ends parsing. Parse is deterministic for a fixed
// clock.
type QueryParser struct {
	kb    *knowledge.Base
	dates *DateParser
	rules []parseRule
}

func NewQueryParser(kb *knowledge.Base, dates *DateParser) *QueryParser {
	p := &QueryParser{kb: kb, dates: dates}
	p.rules = []parseRule{
		{"paraphrase", p.paraphraseRule},
		{"follow_up", p.followUpRule},
		{"event_name", p.eventNameRule},
		{"venue", p.venueRule},
		{"category", p.categoryRule},
		{"artist", p.artistRule},
		{"date", p.dateRule},
		{"keywords", p.keywordRule},
	}
	return p
}

// Parse never fails; an unrecognizable message parses as a general query.
func (p *QueryParser) Parse(message string) *entities.ParsedQuery {
	q := p.parse(message, 0)
	q.Raw = strings.TrimSpace(message)
	return q
}

func (p *QueryParser) parse(message string, depth int) *entities.ParsedQuery {
	text := utils.NormalizeInput(message)
	st := &parseState{
		text:  text,
		rest:  text,
		depth: depth,
		q:     &entities.ParsedQuery{Raw: text},
	}
	for _, r := range p.rules {
		if r.apply(st) {
			return st.q
		}
	}
	st.q.QueryType = p.resolveType(st)
	return st.q
}

func (p *QueryParser) paraphraseRule(st *parseState) bool {
	if st.depth >= maxParaphraseDepth {
		return false
	}
	for _, re := range paraphrasePatterns {
		m := re.FindStringSubmatch(st.text)
		if m == nil {
			continue
		}
		inner := strings.TrimSpace(m[1])
		if inner == "" || isBareReference(inner) {
			return false
		}
		st.q = p.parse(inner, st.depth+1)
		return true
	}
	return false
}

func (p *QueryParser) followUpRule(st *parseState) bool {
	topic := detectTopic(st.text)
	if topic == entities.TopicNone {
		return false
	}
	quoted := extractQuoted(st.text)
	if quoted == "" && !hasDemonstrative(st.text) {
		return false
	}
	st.q.QueryType = entities.QueryTypeFollowUp
	st.q.Keywords = []string{st.text}
	st.q.FollowUpTopic = topic
	st.q.QuotedTitle = quoted
	return true
}

func (p *QueryParser) eventNameRule(st *parseState) bool {
	if !reTitleGlyph.MatchString(st.text) || !reYear.MatchString(st.text) || utf8.RuneCountInString(st.text) < 12 {
		return false
	}
	title := extractQuoted(st.text)
	if title == "" {
		title = strings.TrimSpace(reTitleGlyph.ReplaceAllString(st.text, " "))
	}
	st.q.QueryType = entities.QueryTypeGeneral
	st.q.Keywords = []string{st.text}
	st.q.QuotedTitle = title
	return true
}

func (p *QueryParser) venueRule(st *parseState) bool {
	if v, ok := p.kb.LookupVenue(st.text); ok {
		st.q.Venues = []string{v.Canonical}
		st.claimed = append(st.claimed, st.text)
		st.rest = ""
		return false
	}
	for _, kw := range p.kb.VenueKeywords() {
		start, end, ok := kwMatch.find(st.rest, kw.Text)
		if !ok {
			continue
		}
		st.q.Venues = appendUnique(st.q.Venues, kw.Canonical)
		st.claim(start, end)
	}
	return false
}

func (p *QueryParser) categoryRule(st *parseState) bool {
	if len(st.q.Venues) > 0 {
		return false
	}
	for _, kw := range p.kb.CategoryKeywords() {
		start, end, ok := kwMatch.find(st.rest, kw.Text)
		if !ok {
			continue
		}
		st.q.Categories = appendUnique(st.q.Categories, kw.Canonical)
		st.catHits = append(st.catHits, kw)
		st.claim(start, end)
	}
	return false
}

func (p *QueryParser) artistRule(st *parseState) bool {
	if len(st.q.Venues) > 0 {
		return false
	}
	if a, ok := p.kb.LookupArtist(strings.TrimSpace(st.rest)); ok {
		p.setArtist(st, a.Name, a.Aliases, entities.ArtistSourceKnowledge)
		st.claimed = append(st.claimed, st.rest)
		st.rest = ""
		return false
	}
	// Matched against the full text: a category keyword inside a name
	// (交響 in 國家交響樂團) must not hide the artist.
	for _, kw := range p.kb.ArtistKeywords() {
		if !kwMatch.contains(st.text, kw.Text) || containsFoldAny(st.claimed, kw.Text) {
			continue
		}
		if a, found := p.kb.LookupArtist(kw.Canonical); found {
			p.setArtist(st, a.Name, a.Aliases, entities.ArtistSourceKnowledge)
		}
		p.releaseCategories(st, kw.Text)
		if start, end, ok := kwMatch.find(st.rest, kw.Text); ok {
			st.claim(start, end)
		}
	}
	if len(st.q.Artists) > 0 {
		return false
	}

	if name, ok := p.heuristicArtist(st); ok {
		p.setArtist(st, name, nil, entities.ArtistSourceHeuristic)
		if start, end, found := kwMatch.find(st.rest, name); found {
			st.claim(start, end)
		}
	}
	return false
}

// releaseCategories drops category hits that were only part of name.
func (p *QueryParser) releaseCategories(st *parseState, name string) {
	kept := st.catHits[:0]
	for _, hit := range st.catHits {
		if !kwMatch.contains(name, hit.Text) {
			kept = append(kept, hit)
		}
	}
	st.catHits = kept
	st.q.Categories = nil
	for _, hit := range kept {
		st.q.Categories = appendUnique(st.q.Categories, hit.Canonical)
	}
}

func (p *QueryParser) setArtist(st *parseState, name string, aliases []string, src entities.ArtistSource) {
	st.q.Artists = appendUnique(st.q.Artists, name)
	if st.q.ArtistInfo == nil {
		st.q.ArtistInfo = &entities.ArtistInfo{Name: name, Aliases: aliases, Source: src}
	}
}

// heuristicArtist guesses a performer name that is not in the knowledge base.
func (p *QueryParser) heuristicArtist(st *parseState) (string, bool) {
	for _, m := range reCapitalizedName.FindAllString(st.text, -1) {
		if name, ok := p.latinCandidate(m, st); ok {
			return name, true
		}
	}
	if m := reLowerPairName.FindStringSubmatch(st.text); m != nil {
		if name, ok := p.latinCandidate(m[1], st); ok {
			return name, true
		}
	}
	for _, re := range hanNamePatterns {
		for _, m := range re.FindAllStringSubmatch(st.text, -1) {
			if name, ok := p.hanCandidate(m[1], st); ok {
				return name, true
			}
		}
	}
	return "", false
}

func (p *QueryParser) latinCandidate(candidate string, st *parseState) (string, bool) {
	words := strings.Fields(candidate)
	for len(words) > 0 && p.kb.IsStopWord(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && p.kb.IsStopWord(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	if len(words) < 2 {
		return "", false
	}
	for _, w := range words {
		lw := strings.ToLower(strings.Trim(w, ".'"))
		if _, ok := eventNouns[lw]; ok || p.kb.IsStopWord(lw) {
			return "", false
		}
	}
	name := strings.Join(words, " ")
	if !p.acceptable(name, st) {
		return "", false
	}
	return name, true
}

func (p *QueryParser) hanCandidate(candidate string, st *parseState) (string, bool) {
	name := p.trimHanStopWords(candidate)
	if n := utils.CountHan(name); n < 2 || n > 6 {
		return "", false
	}
	if !p.acceptable(name, st) {
		return "", false
	}
	return name, true
}

// acceptable rejects stop words, claimed venue or category text and dates.
func (p *QueryParser) acceptable(name string, st *parseState) bool {
	if p.kb.IsStopWord(name) {
		return false
	}
	for _, c := range st.claimed {
		if utils.ContainsFold(name, strings.TrimSpace(c)) || utils.ContainsFold(c, name) {
			return false
		}
	}
	for _, kw := range p.kb.VenueKeywords() {
		if kwMatch.contains(name, kw.Text) {
			return false
		}
	}
	for _, kw := range p.kb.CategoryKeywords() {
		if kwMatch.contains(name, kw.Text) {
			return false
		}
	}
	if _, _, _, ok := p.dates.Extract(name); ok {
		return false
	}
	return true
}

// trimHanStopWords strips stop words from both ends of a Han candidate.
func (p *QueryParser) trimHanStopWords(s string) string {
	words := p.hanStopWords()
	for changed := true; changed && s != ""; {
		changed = false
		for _, w := range words {
			if strings.HasPrefix(s, w) {
				s, changed = strings.TrimPrefix(s, w), true
			}
			if strings.HasSuffix(s, w) {
				s, changed = strings.TrimSuffix(s, w), true
			}
		}
	}
	return s
}

func (p *QueryParser) hanStopWords() []string {
	var out []string
	for _, w := range p.kb.StopWords() {
		if utils.ContainsHan(w) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func (p *QueryParser) dateRule(st *parseState) bool {
	dr, start, end, ok := p.dates.Extract(st.rest)
	if !ok {
		return false
	}
	st.q.DateRange = dr
	st.rest = cut(st.rest, start, end)
	return false
}

func (p *QueryParser) keywordRule(st *parseState) bool {
	st.q.Keywords = p.residualKeywords(st.rest)
	return false
}

// residualKeywords splits what no rule claimed into search keywords.
func (p *QueryParser) residualKeywords(rest string) []string {
	stops := p.hanStopWords()
	var out []string
	for _, chunk := range reResidualSplit.Split(rest, -1) {
		if chunk == "" {
			continue
		}
		if !utils.ContainsHan(chunk) {
			if len(chunk) >= 2 && !p.kb.IsStopWord(chunk) {
				out = appendUnique(out, chunk)
			}
			continue
		}
		for _, w := range stops {
			if utf8.RuneCountInString(w) > 1 {
				chunk = strings.ReplaceAll(chunk, w, " ")
			}
		}
		for _, piece := range strings.Fields(chunk) {
			piece = p.trimHanStopWords(piece)
			if utf8.RuneCountInString(piece) >= 2 && !p.kb.IsStopWord(piece) && !isDigits(piece) {
				out = appendUnique(out, piece)
			}
		}
	}
	return out
}

func (p *QueryParser) resolveType(st *parseState) entities.QueryType {
	q := st.q
	for _, hit := range st.catHits {
		if p.kb.IsPerformanceKeyword(hit.Text) {
			st.perf = true
		}
	}
	if q.DateRange != nil {
		return entities.QueryTypeDate
	}
	hasVenue, hasArtist, hasCategory := len(q.Venues) > 0, len(q.Artists) > 0, len(q.Categories) > 0
	if hasCategory && hasArtist && !hasVenue && st.perf {
		return entities.QueryTypeArtist
	}
	facets := 0
	for _, b := range []bool{hasVenue, hasArtist, hasCategory} {
		if b {
			facets++
		}
	}
	switch {
	case facets > 1:
		return entities.QueryTypeMixed
	case hasVenue:
		return entities.QueryTypeVenue
	case hasArtist:
		return entities.QueryTypeArtist
	case hasCategory:
		return entities.QueryTypeCategory
	default:
		return entities.QueryTypeGeneral
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, v) {
			return list
		}
	}
	return append(list, v)
}

func containsFoldAny(list []string, s string) bool {
	for _, item := range list {
		if utils.ContainsFold(item, s) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
