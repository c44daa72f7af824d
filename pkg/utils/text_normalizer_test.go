package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full width digits", "２０２５／３／１５", "2025/3/15"},
		{"full width latin", "Ｌａｎｇ　Ｌａｎｇ", "Lang Lang"},
		{"collapse spaces", "  國家音樂廳   演出 ", "國家音樂廳 演出"},
		{"han untouched", "第二個", "第二個"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInput(tt.input))
		})
	}
}

func TestCompactKey(t *testing.T) {
	assert.Equal(t, "nationalconcerthall", CompactKey("National Concert-Hall"))
	assert.Equal(t, "國家音樂廳", CompactKey("國家 音樂廳"))
	assert.Equal(t, "zepp新莊", CompactKey("Zepp 新莊"))
	assert.Equal(t, "abc", CompactKey("ＡＢ－Ｃ"))
}

func TestCharacterCounts(t *testing.T) {
	assert.True(t, ContainsHan("hello 周杰倫"))
	assert.False(t, ContainsHan("hello"))
	assert.Equal(t, 3, CountHan("周杰倫 tour"))
	assert.Equal(t, 4, CountLatin("周杰倫 tour"))
	assert.True(t, IsLatinWord("Lang Lang"))
	assert.False(t, IsLatinWord("郎朗"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "國家…", TruncateRunes("國家音樂廳", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Tickets DELISTED", []string{"delisted"}))
	assert.False(t, ContainsAny("on sale", []string{"下架", "delisted"}))
	assert.True(t, ContainsFold("Spring Recital", "spring"))
}
