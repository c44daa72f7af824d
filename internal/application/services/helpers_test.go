package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ticketassistant/internal/adapters/memory"
	"github.com/zatekoja/ticketassistant/internal/application/services"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

const externalSearchURL = "https://www.google.com/search?q="

// Mocks

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Chat(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Find(ctx context.Context, userID string) (*entities.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Session), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entities.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) UpdateFields(ctx context.Context, userID string, updates entities.FieldUpdates) error {
	return m.Called(ctx, userID, updates).Error(0)
}

// Fixtures

func at(y int, m time.Month, d, h, min int) entities.EventDate {
	return entities.EventDate{Date: time.Date(y, m, d, h, min, 0, 0, taipei)}
}

func testCorpus() []*entities.Event {
	return []*entities.Event{
		{
			EventID:   "jay-2025",
			Title:     "周杰倫 嘉年華世界巡迴演唱會",
			Venue:     "臺北大巨蛋",
			Artists:   []string{"周杰倫"},
			Category:  "concert",
			Dates:     []entities.EventDate{at(2025, 4, 5, 19, 30), at(2025, 4, 6, 19, 30)},
			URL:       "https://tickets.example.com/jay-2025",
			PriceInfo: "NT$800 - NT$5,880",
		},
		{
			EventID:  "mayday-kh",
			Title:    "五月天 回到那一天 巡迴演唱會 高雄站",
			Venue:    "高雄巨蛋",
			Artists:  []string{"五月天"},
			Category: "concert",
			Dates:    []entities.EventDate{at(2025, 3, 15, 19, 0)},
			URL:      "https://tickets.example.com/mayday-kh",
		},
		{
			EventID:  "mayday-tp",
			Title:    "五月天 回到那一天 巡迴演唱會 台北站",
			Venue:    "臺北小巨蛋",
			Artists:  []string{"五月天"},
			Category: "concert",
			Dates:    []entities.EventDate{at(2025, 3, 22, 19, 0)},
			URL:      "https://tickets.example.com/mayday-tp",
		},
		{
			EventID:  "langlang",
			Title:    "郎朗鋼琴獨奏會",
			Venue:    "國家音樂廳",
			Artists:  []string{"郎朗"},
			Category: "classical",
			Dates:    []entities.EventDate{at(2025, 3, 16, 14, 30)},
			URL:      "https://tickets.example.com/langlang",
		},
		{
			EventID: "jay-extra",
			Title:   "周杰倫 加場（已下架）",
			Venue:   "臺北大巨蛋",
			Artists: []string{"周杰倫"},
			Dates:   []entities.EventDate{at(2025, 4, 7, 19, 30)},
		},
	}
}

func newTestResponses() *services.ResponseBuilder {
	return services.NewResponseBuilder(knowledge.Default(), taipei, 5, externalSearchURL)
}

func newTestSearch(events ...*entities.Event) *services.SearchService {
	return services.NewSearchService(memory.NewEventRepository(events...), nil, nil, knowledge.Default(), 10)
}

// harness wires a conversation service over in-memory adapters.
type harness struct {
	svc       *services.ConversationService
	sessions  *memory.SessionRepository
	messages  *memory.MessageRepository
	favorites *memory.FavoriteRepository
	responses *services.ResponseBuilder
	generator *MockGenerator
}

func newHarness(t *testing.T, events ...*entities.Event) *harness {
	t.Helper()
	h := &harness{
		sessions:  memory.NewSessionRepository(),
		messages:  memory.NewMessageRepository(),
		favorites: memory.NewFavoriteRepository(),
		responses: newTestResponses(),
		generator: new(MockGenerator),
	}
	h.svc = services.NewConversationService(h.deps(h.sessions, events...))
	return h
}

func (h *harness) deps(sessionRepo repositories.SessionRepository, events ...*entities.Event) services.ConversationDeps {
	kb := knowledge.Default()
	parser := newTestParser()
	store := services.NewSessionStore(sessionRepo, entities.LocaleZhTW, fixedNow)
	search := newTestSearch(events...)
	return services.ConversationDeps{
		Sessions:      store,
		Classifier:    services.NewIntentClassifier(kb, parser),
		Machine:       services.NewStateMachine(),
		Parser:        parser,
		Search:        search,
		Responses:     h.responses,
		Generation:    services.NewGenerationService(h.generator, h.messages, h.responses, nil, 6, 1500),
		Favorites:     services.NewFavoriteService(h.favorites, store),
		Messages:      h.messages,
		Analytics:     services.NewSearchAnalyticsService(memory.NewSearchAnalyticsRepository()),
		Legacy:        services.NewLegacyHandler(kb, parser, search, h.responses),
		DefaultLocale: entities.LocaleZhTW,
	}
}

func (h *harness) session(t *testing.T, userID string) *entities.Session {
	t.Helper()
	s, err := h.sessions.Find(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func replyTexts(r *entities.Reply) []string {
	if r == nil || r.QuickReply == nil {
		return nil
	}
	out := make([]string, 0, len(r.QuickReply.Items))
	for _, item := range r.QuickReply.Items {
		out = append(out, item.Text)
	}
	return out
}
