package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

func newTestLegacy() *services.LegacyHandler {
	return services.NewLegacyHandler(knowledge.Default(), newTestParser(), newTestSearch(testCorpus()...), newTestResponses())
}

func TestLegacyHandler(t *testing.T) {
	h := newTestLegacy()
	ctx := context.Background()

	t.Run("answers FAQ", func(t *testing.T) {
		reply, err := h.Handle(ctx, "怎麼退票", entities.LocaleZhTW)
		require.NoError(t, err)
		assert.Contains(t, reply.ReplyText, "💡")
	})

	t.Run("searches statelessly", func(t *testing.T) {
		reply, err := h.Handle(ctx, "郎朗", entities.LocaleZhTW)
		require.NoError(t, err)
		assert.Contains(t, reply.ReplyText, "郎朗鋼琴獨奏會")
		assert.Equal(t, []string{"🔍 搜尋活動", "❓ 常見問題", "📌 我的收藏"}, replyTexts(reply))
	})

	t.Run("follow-up without context", func(t *testing.T) {
		reply, err := h.Handle(ctx, "what time is it", entities.LocaleEn)
		require.NoError(t, err)
		assert.Contains(t, reply.ReplyText, "Search for and select an event first")
	})

	t.Run("no results use the fixed reply", func(t *testing.T) {
		reply, err := h.Handle(ctx, "Coldplay", entities.LocaleEn)
		require.NoError(t, err)
		assert.Contains(t, reply.ReplyText, "couldn't find")
		assert.Contains(t, reply.ReplyText, externalSearchURL+"Coldplay")
	})
}
