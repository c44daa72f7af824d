package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

func TestDefault_Parses(t *testing.T) {
	kb := Default()

	assert.NotEmpty(t, kb.Venues())
	assert.NotEmpty(t, kb.FAQ())
	assert.NotEmpty(t, kb.CategoryKeywords())
}

func TestLookupVenue_AliasAndNormalizedForms(t *testing.T) {
	kb := Default()

	v, ok := kb.LookupVenue("national concert-hall")
	require.True(t, ok)
	assert.Equal(t, "國家音樂廳", v.Canonical)

	v, ok = kb.LookupVenue("台北小巨蛋")
	require.True(t, ok)
	assert.Equal(t, "臺北小巨蛋", v.Canonical)

	_, ok = kb.LookupVenue("Some Basement Bar")
	assert.False(t, ok)
}

func TestVenueKeywords_LongestFirst(t *testing.T) {
	kws := Default().VenueKeywords()

	for i := 1; i < len(kws); i++ {
		assert.GreaterOrEqual(t, len([]rune(kws[i-1].Text)), len([]rune(kws[i].Text)))
	}
}

func TestLookupArtist(t *testing.T) {
	kb := Default()

	a, ok := kb.LookupArtist("lang lang")
	require.True(t, ok)
	assert.Equal(t, "郎朗", a.Name)

	a, ok = kb.LookupArtist("JayChou")
	require.True(t, ok)
	assert.Equal(t, "周杰倫", a.Name)
}

func TestMatchFAQ(t *testing.T) {
	kb := Default()

	faq, ok := kb.MatchFAQ("請問可以退票嗎")
	require.True(t, ok)
	assert.Equal(t, "refund", faq.ID)
	assert.Contains(t, faq.Answer(entities.LocaleEn), "Refund")

	_, ok = kb.MatchFAQ("周杰倫演唱會")
	assert.False(t, ok)
}

func TestIsDelisted(t *testing.T) {
	kb := Default()

	assert.True(t, kb.IsDelisted(&entities.Event{Title: "【已下架】春季音樂會"}))
	assert.True(t, kb.IsDelisted(&entities.Event{Title: "Spring", Description: "This listing was DELISTED"}))
	assert.False(t, kb.IsDelisted(&entities.Event{Title: "Spring Recital"}))
}

func TestCategoryHelpers(t *testing.T) {
	kb := Default()

	c, ok := kb.LookupCategory("演唱會")
	require.True(t, ok)
	assert.Equal(t, "concert", c.Name)
	assert.Equal(t, "Concert", c.Label(entities.LocaleEn))
	assert.True(t, kb.IsPerformanceKeyword("演唱會"))
	assert.False(t, kb.IsPerformanceKeyword("展覽"))
	assert.True(t, kb.IsStopWord("The"))
}

func TestParse_RejectsMissingNames(t *testing.T) {
	_, err := Parse([]byte("venues:\n  - aliases: [x]\n"))
	assert.Error(t, err)
}
