package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

func newTestParser() *services.QueryParser {
	return services.NewQueryParser(knowledge.Default(), services.NewDateParser(taipei, fixedNow))
}

func TestQueryParser_Facets(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name       string
		message    string
		queryType  entities.QueryType
		artists    []string
		venues     []string
		categories []string
	}{
		{"known artist with concert word", "周杰倫演唱會", entities.QueryTypeArtist, []string{"周杰倫"}, nil, []string{"concert"}},
		{"exact venue", "國家音樂廳", entities.QueryTypeVenue, nil, []string{"國家音樂廳"}, nil},
		{"latin alias", "Lang Lang recital", entities.QueryTypeArtist, []string{"郎朗"}, nil, nil},
		{"full-width input", "ＣＯＬＤＰＬＡＹ", entities.QueryTypeArtist, []string{"Coldplay"}, nil, nil},
		{"category only", "最近有什麼音樂劇", entities.QueryTypeCategory, nil, nil, []string{"musical"}},
		{"venue suppresses artist", "五月天 臺北小巨蛋", entities.QueryTypeVenue, nil, []string{"臺北小巨蛋"}, nil},
		{"artist with non-performance category", "周杰倫 展覽", entities.QueryTypeMixed, []string{"周杰倫"}, nil, []string{"exhibition"}},
		{"category word inside artist name", "國家交響樂團 音樂會", entities.QueryTypeArtist, []string{"國家交響樂團"}, nil, []string{"classical"}},
		{"paraphrase unwrap", "介紹周杰倫", entities.QueryTypeArtist, []string{"周杰倫"}, nil, nil},
		{"english paraphrase", "find Ed Sheeran concerts", entities.QueryTypeArtist, []string{"Ed Sheeran"}, nil, []string{"concert"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := p.Parse(tt.message)
			assert.Equal(t, tt.queryType, q.QueryType)
			assert.Equal(t, tt.artists, q.Artists)
			assert.Equal(t, tt.venues, q.Venues)
			assert.Equal(t, tt.categories, q.Categories)
			assert.Equal(t, tt.message, q.Raw)
		})
	}
}

func TestQueryParser_HeuristicArtists(t *testing.T) {
	p := newTestParser()

	q := p.Parse("有沒有王力宏的演唱會")
	assert.Equal(t, entities.QueryTypeArtist, q.QueryType)
	require.NotNil(t, q.ArtistInfo)
	assert.Equal(t, "王力宏", q.ArtistInfo.Name)
	assert.Equal(t, entities.ArtistSourceHeuristic, q.ArtistInfo.Source)

	q = p.Parse("Any Taylor Swift concerts?")
	assert.Equal(t, entities.QueryTypeArtist, q.QueryType)
	assert.Equal(t, []string{"Taylor Swift"}, q.Artists)

	q = p.Parse("台北演唱會")
	assert.Equal(t, entities.QueryTypeCategory, q.QueryType)
	assert.Empty(t, q.Artists)
}

func TestQueryParser_EventNamesAreNotArtists(t *testing.T) {
	p := newTestParser()

	q := p.Parse("Spring Recital")
	assert.Equal(t, entities.QueryTypeGeneral, q.QueryType)
	assert.Empty(t, q.Artists)
	assert.Equal(t, []string{"Spring", "Recital"}, q.Keywords)
}

func TestQueryParser_DateWins(t *testing.T) {
	p := newTestParser()

	q := p.Parse("國家音樂廳 這週末")
	assert.Equal(t, entities.QueryTypeDate, q.QueryType)
	assert.Equal(t, []string{"國家音樂廳"}, q.Venues)
	require.NotNil(t, q.DateRange)
	assert.True(t, day(2025, 3, 15).Equal(q.DateRange.From))
}

func TestQueryParser_FollowUp(t *testing.T) {
	p := newTestParser()

	q := p.Parse("這場幾點開始")
	assert.Equal(t, entities.QueryTypeFollowUp, q.QueryType)
	assert.Equal(t, entities.TopicTime, q.FollowUpTopic)
	assert.Equal(t, []string{"這場幾點開始"}, q.Keywords)

	q = p.Parse("「春之祭」票價多少")
	assert.Equal(t, entities.QueryTypeFollowUp, q.QueryType)
	assert.Equal(t, entities.TopicPrice, q.FollowUpTopic)
	assert.Equal(t, "春之祭", q.QuotedTitle)

	q = p.Parse("介紹這場")
	assert.Equal(t, entities.QueryTypeFollowUp, q.QueryType)
	assert.Equal(t, entities.TopicDetails, q.FollowUpTopic)
}

func TestQueryParser_EventNameShaped(t *testing.T) {
	p := newTestParser()

	q := p.Parse("《2025 五月天 回到那一天 巡迴演唱會》")
	assert.Equal(t, entities.QueryTypeGeneral, q.QueryType)
	assert.Equal(t, "2025 五月天 回到那一天 巡迴演唱會", q.QuotedTitle)
	assert.Empty(t, q.Artists)
}

func TestQueryParser_Deterministic(t *testing.T) {
	p := newTestParser()

	for _, msg := range []string{"周杰倫演唱會", "國家音樂廳 下個月", "Spring Recital", "這場在哪裡"} {
		assert.Equal(t, p.Parse(msg), p.Parse(msg), msg)
	}
}

func TestQueryParser_CaseChangingRunesKeepOffsets(t *testing.T) {
	p := newTestParser()

	// Ⱥ and Ⱦ grow when lower-cased; İ shrinks.
	q := p.Parse("ȾȾȾ周杰倫")
	assert.Equal(t, []string{"周杰倫"}, q.Artists)

	q = p.Parse("ȺȺȺȺȺ國家音樂廳")
	assert.Equal(t, []string{"國家音樂廳"}, q.Venues)

	q = p.Parse("İİİİİİ周杰倫")
	assert.Equal(t, []string{"周杰倫"}, q.Artists)
	assert.NotContains(t, q.Keywords, "杰倫")
	assert.NotContains(t, q.Keywords, "İİİ")
}
