package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeInput folds full-width digits, Latin letters and punctuation to
// their half-width forms and collapses runs of whitespace.
func NormalizeInput(s string) string {
	folded := width.Fold.String(s)
	return strings.Join(strings.Fields(folded), " ")
}

// CompactKey produces a comparison key: lower-cased, half-width, with spaces,
// hyphens and punctuation removed. "National Concert-Hall" and
// "nationalconcerthall" share a key.
func CompactKey(s string) string {
	folded := width.Fold.String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// IsHan reports whether r is a CJK ideograph.
func IsHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// ContainsHan reports whether s contains any CJK ideograph.
func ContainsHan(s string) bool {
	for _, r := range s {
		if IsHan(r) {
			return true
		}
	}
	return false
}

// CountHan counts CJK ideographs in s.
func CountHan(s string) int {
	n := 0
	for _, r := range s {
		if IsHan(r) {
			n++
		}
	}
	return n
}

// CountLatin counts ASCII letters in s.
func CountLatin(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			n++
		}
	}
	return n
}

// IsLatinWord reports whether s consists only of ASCII letters, digits,
// spaces, apostrophes, dots, ampersands and hyphens.
func IsLatinWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ', r == '\'', r == '.', r == '-', r == '&':
		default:
			return false
		}
	}
	return true
}

// TruncateRunes cuts s to at most n runes, appending an ellipsis when cut.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// ContainsFold is a case-insensitive strings.Contains.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ContainsAny reports whether s contains any of the needles, case-insensitively.
func ContainsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
