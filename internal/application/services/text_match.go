package services

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zatekoja/ticketassistant/pkg/utils"
)

// keywordMatcher finds a keyword in text. Latin keywords match at word
// boundaries, everything else as a case-insensitive substring. Matching
// runs on the original text so returned offsets always slice it safely.
type keywordMatcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

var kwMatch = newKeywordMatcher(2048)

func newKeywordMatcher(size int) *keywordMatcher {
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		panic(err)
	}
	return &keywordMatcher{cache: cache}
}

func (m *keywordMatcher) pattern(kw string, bounded bool) *regexp.Regexp {
	key := "s:" + kw
	if bounded {
		key = "w:" + kw
	}
	if re, ok := m.cache.Get(key); ok {
		return re
	}

	trimmed := strings.TrimSpace(kw)
	expr := strings.ReplaceAll(regexp.QuoteMeta(trimmed), ` `, `\s+`)
	if bounded && isWordByte(trimmed[0]) {
		expr = `\b` + expr
	}
	if bounded && isWordByte(trimmed[len(trimmed)-1]) {
		expr += `\b`
	}
	re := regexp.MustCompile(`(?i)` + expr)
	m.cache.Add(key, re)
	return re
}

// find returns the byte span of the first occurrence of kw in text.
func (m *keywordMatcher) find(text, kw string) (int, int, bool) {
	kw = strings.TrimSpace(kw)
	if kw == "" || text == "" {
		return 0, 0, false
	}
	loc := m.pattern(kw, utils.IsLatinWord(kw)).FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

func (m *keywordMatcher) contains(text, kw string) bool {
	_, _, ok := m.find(text, kw)
	return ok
}

// containsAny reports whether text contains any keyword.
func (m *keywordMatcher) containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if m.contains(text, kw) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// cut removes text[start:end] and leaves a space in its place.
func cut(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}
