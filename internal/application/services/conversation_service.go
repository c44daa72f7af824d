package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/providers"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
	"github.com/zatekoja/ticketassistant/pkg/utils"
	"go.opentelemetry.io/otel/attribute"
)

// notFoundPhrases mark a generated reply that says nothing was found. Such a
// reply clears the session even when the turn had results.
var notFoundPhrases = []string{
	"沒有找到", "找不到", "查無", "沒有相關",
	"couldn't find", "could not find", "no matching", "no events", "no results", "not found",
}

// ConversationDeps wires the turn pipeline. Generation, Favorites, Messages,
// Analytics, Legacy and Metrics may be nil.
type ConversationDeps struct {
	Sessions      *SessionStore
	Classifier    *IntentClassifier
	Machine       *StateMachine
	Parser        *QueryParser
	Search        *SearchService
	Responses     *ResponseBuilder
	Generation    *GenerationService
	Favorites     *FavoriteService
	Messages      repositories.MessageRepository
	Analytics     *SearchAnalyticsService
	Legacy        *LegacyHandler
	Metrics       *observability.Metrics
	DefaultLocale entities.Locale
}

// turnStrategy is one way of answering a turn. Strategies run in order
// until one returns a reply.
type turnStrategy struct {
	name string
	run  func(ctx context.Context, t *turn) (*entities.Reply, error)
}

// turn is the per-message bookkeeping shared by the strategies.
type turn struct {
	userID         string
	message        string
	locale         entities.Locale
	explicitLocale bool
	intent         entities.IntentType
	action         entities.ActionType
	state          entities.SessionState
}

type ConversationService struct {
	sessions      *SessionStore
	classifier    *IntentClassifier
	machine       *StateMachine
	parser        *QueryParser
	search        *SearchService
	responses     *ResponseBuilder
	generation    *GenerationService
	favorites     *FavoriteService
	messages      repositories.MessageRepository
	analytics     *SearchAnalyticsService
	legacy        *LegacyHandler
	metrics       *observability.Metrics
	defaultLocale entities.Locale

	strategies []turnStrategy
}

func NewConversationService(d ConversationDeps) *ConversationService {
	if d.DefaultLocale == "" {
		d.DefaultLocale = entities.LocaleZhTW
	}
	s := &ConversationService{
		sessions:      d.Sessions,
		classifier:    d.Classifier,
		machine:       d.Machine,
		parser:        d.Parser,
		search:        d.Search,
		responses:     d.Responses,
		generation:    d.Generation,
		favorites:     d.Favorites,
		messages:      d.Messages,
		analytics:     d.Analytics,
		legacy:        d.Legacy,
		metrics:       d.Metrics,
		defaultLocale: d.DefaultLocale,
	}
	s.strategies = []turnStrategy{{name: "pipeline", run: s.runPipeline}}
	if s.legacy != nil {
		s.strategies = append(s.strategies, turnStrategy{name: "legacy", run: s.runLegacy})
	}
	return s
}

// HandleMessage answers one user message. It never fails: when every
// strategy errors the reply is a generic apology with a search link.
func (s *ConversationService) HandleMessage(ctx context.Context, userID, message, locale string) *entities.Reply {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "conversation.turn")
	defer span.End()
	logger := observability.UserLogger(ctx, userID)

	t := &turn{
		userID:  userID,
		message: strings.TrimSpace(message),
		action:  entities.ActionNoAction,
		state:   entities.SessionStateIdle,
	}
	if l, ok := entities.ParseLocale(locale); ok {
		t.locale, t.explicitLocale = l, true
	}

	var reply *entities.Reply
	for _, strategy := range s.strategies {
		r, err := s.runStrategy(ctx, strategy, t)
		if err == nil && r != nil {
			reply = r
			break
		}
		observability.RecordError(span, err)
		logger.Warn().Err(err).Str("strategy", strategy.name).Msg("turn strategy failed")
	}
	if reply == nil {
		loc := t.resolvedLocale(s.defaultLocale)
		reply = &entities.Reply{
			ReplyText:  s.responses.Apology(providers.GeneratorFailureGeneric, t.message, loc),
			QuickReply: SuggestedRepliesFor(&entities.Session{State: entities.SessionStateIdle}, loc),
		}
	}

	s.logMessages(ctx, t, reply)

	observability.SetSpanAttributes(span,
		attribute.String("assistant.intent", string(t.intent)),
		attribute.String("assistant.action", string(t.action)),
		attribute.String("assistant.state", string(t.state)),
	)
	observability.RecordTurn(ctx, s.metrics, string(t.state), string(t.action), time.Since(start))
	logger.Info().
		Str("intent", string(t.intent)).
		Str("action", string(t.action)).
		Str("state", string(t.state)).
		Dur("duration", time.Since(start)).
		Msg("turn handled")
	return reply
}

func (s *ConversationService) runStrategy(ctx context.Context, strategy turnStrategy, t *turn) (reply *entities.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = nil, fmt.Errorf("%s strategy panicked: %v", strategy.name, r)
		}
	}()
	return strategy.run(ctx, t)
}

func (s *ConversationService) runPipeline(ctx context.Context, t *turn) (*entities.Reply, error) {
	session, err := s.sessions.Load(ctx, t.userID)
	if err != nil {
		return nil, err
	}

	patch := entities.NewSessionPatch()
	if locale := s.resolveLocale(t, session); locale != session.Context.Language {
		patch.SetLanguage(locale)
		session.Context.Language = locale
	}
	t.locale = session.Context.Language

	var intent entities.Intent
	if t.message == "" {
		intent = entities.Intent{Type: entities.IntentGlobalCommand, Data: entities.IntentData{Command: entities.CommandMainMenu, SelectionIndex: -1}}
	} else {
		intent = s.classifier.Classify(t.message, session)
	}
	next, action := s.machine.Transition(session, intent)
	t.intent, t.action = intent.Type, action.Type

	observability.UserLogger(ctx, t.userID).Debug().
		Str("state", string(session.State)).
		Str("intent", string(intent.Type)).
		Str("next", string(next)).
		Str("action", string(action.Type)).
		Msg("transition")

	text, actionPatch, err := s.dispatch(ctx, t, session, next, action)
	if err != nil {
		return nil, err
	}
	patch.Merge(actionPatch)

	if err := s.sessions.Save(ctx, t.userID, patch); err != nil {
		return nil, err
	}
	if err := session.Apply(patch.Fields()); err != nil {
		return nil, err
	}
	t.state = session.State

	return &entities.Reply{ReplyText: text, QuickReply: SuggestedRepliesFor(session, t.locale)}, nil
}

func (s *ConversationService) runLegacy(ctx context.Context, t *turn) (*entities.Reply, error) {
	t.action = entities.ActionNoAction
	t.state = entities.SessionStateIdle
	return s.legacy.Handle(ctx, t.message, t.resolvedLocale(s.defaultLocale))
}

// resolveLocale prefers the caller's locale, then the script of the
// message, then the stored session language.
func (s *ConversationService) resolveLocale(t *turn, session *entities.Session) entities.Locale {
	switch {
	case t.explicitLocale:
		return t.locale
	case utils.ContainsHan(t.message):
		return entities.LocaleZhTW
	case utils.CountLatin(t.message) >= 3:
		return entities.LocaleEn
	case session.Context.Language != "":
		return session.Context.Language
	}
	return s.defaultLocale
}

func (t *turn) resolvedLocale(def entities.Locale) entities.Locale {
	switch {
	case t.locale != "":
		return t.locale
	case utils.ContainsHan(t.message):
		return entities.LocaleZhTW
	case utils.CountLatin(t.message) >= 3:
		return entities.LocaleEn
	}
	return def
}

// statePatch moves the session to next. IDLE carries no context.
func statePatch(next entities.SessionState) *entities.SessionPatch {
	if next == entities.SessionStateIdle {
		return ClearPatch()
	}
	return entities.NewSessionPatch().SetState(next)
}

// dispatch executes action and returns the reply text with the session
// changes it implies.
func (s *ConversationService) dispatch(ctx context.Context, t *turn, session *entities.Session, next entities.SessionState, action entities.Action) (string, *entities.SessionPatch, error) {
	switch action.Type {
	case entities.ActionSearchEvents:
		return s.searchEvents(ctx, t, session, action)

	case entities.ActionAnswerEventQuestion:
		return s.answerEventQuestion(ctx, t, next, action)

	case entities.ActionShowEventDetails:
		patch := entities.NewSessionPatch().SetState(next).SetSelectedEvent(action.Event, action.Index)
		return s.responses.EventDetails(action.Event, t.locale), patch, nil

	case entities.ActionShowEventList:
		return s.responses.EventList(action.Events, t.locale), statePatch(next), nil

	case entities.ActionShowFAQ:
		return s.responses.FAQAnswer(action.FAQ, t.locale), statePatch(next), nil

	case entities.ActionShowMainMenu:
		return s.responses.MainMenu(t.locale), ClearPatch(), nil

	case entities.ActionClearSession:
		return s.responses.Cleared(t.locale), ClearPatch(), nil

	case entities.ActionGeneralQuestion:
		return s.generalQuestion(ctx, t, session, next)

	case entities.ActionAddFavorite:
		if s.favorites == nil {
			return s.responses.NoAction("", t.locale), statePatch(next), nil
		}
		already, err := s.favorites.Add(ctx, t.userID, action.Event)
		if err != nil {
			return "", nil, err
		}
		if !already {
			session.Context.FavoritesList = append(session.Context.FavoritesList, action.Event.Ref())
		}
		return s.responses.FavoriteAdded(action.Event, already, t.locale), statePatch(next), nil

	case entities.ActionShowFavorites:
		var list []*entities.Favorite
		if s.favorites != nil {
			var err error
			if list, err = s.favorites.List(ctx, t.userID); err != nil {
				return "", nil, err
			}
		}
		return s.responses.Favorites(list, t.locale), statePatch(next), nil

	case entities.ActionNoAction:
		return s.responses.NoAction(action.Question, t.locale), statePatch(next), nil
	}
	return "", nil, fmt.Errorf("unhandled action %q", action.Type)
}

// searchEvents runs the search and saves its context before any reply text
// is produced, so a failure later in the turn keeps the results.
func (s *ConversationService) searchEvents(ctx context.Context, t *turn, session *entities.Session, action entities.Action) (string, *entities.SessionPatch, error) {
	q := action.Query
	if q == nil {
		q = s.parser.Parse(action.Question)
	}

	started := time.Now()
	result, err := s.search.Search(ctx, q)
	if err != nil {
		return "", nil, err
	}
	s.analytics.TrackSearch(ctx, t.userID, q, len(result.Events), time.Since(started))

	contextPatch := SearchContextPatch(q.Raw, result.Events)
	if err := s.sessions.Save(ctx, t.userID, contextPatch); err != nil {
		return "", nil, err
	}
	if err := session.Apply(contextPatch.Fields()); err != nil {
		return "", nil, err
	}

	observability.UserLogger(ctx, t.userID).Debug().
		Str("query_type", string(q.QueryType)).
		Int("result_count", len(result.Events)).
		Msg("search executed")

	if action.Topic != entities.TopicNone && len(result.Events) == 1 {
		if text, ok := s.responses.AnswerTopic(result.Events[0], action.Topic, t.locale); ok {
			return text, entities.NewSessionPatch(), nil
		}
	}

	built := s.responses.BuildStructuredResponse(q, result, t.locale)
	if !built.UseLLM {
		return built.Text, entities.NewSessionPatch(), nil
	}

	text, _ := s.generate(ctx, t, GenerationRequest{Query: q, NoResults: true})
	return text, entities.NewSessionPatch(), nil
}

func (s *ConversationService) answerEventQuestion(ctx context.Context, t *turn, next entities.SessionState, action entities.Action) (string, *entities.SessionPatch, error) {
	if action.Event != nil {
		patch := entities.NewSessionPatch().SetState(next).SetSelectedEvent(action.Event, action.Index)
		if text, ok := s.responses.AnswerTopic(action.Event, action.Topic, t.locale); ok {
			return text, patch, nil
		}
		text, generated := s.generate(ctx, t, GenerationRequest{Event: action.Event})
		if generated && mentionsNotFound(text) {
			return text, ClearPatch(), nil
		}
		return text, patch, nil
	}

	patch := statePatch(next)
	if text, ok := s.responses.AnswerListTopic(action.Events, action.Topic, t.locale); ok {
		return text, patch, nil
	}
	text, generated := s.generate(ctx, t, GenerationRequest{Events: action.Events})
	if generated && mentionsNotFound(text) {
		return text, ClearPatch(), nil
	}
	return text, patch, nil
}

func (s *ConversationService) generalQuestion(ctx context.Context, t *turn, session *entities.Session, next entities.SessionState) (string, *entities.SessionPatch, error) {
	req := GenerationRequest{}
	if next == entities.SessionStateEventSelected {
		req.Event = session.Context.SelectedEvent
	}
	text, generated := s.generate(ctx, t, req)
	if generated && mentionsNotFound(text) && session.HasResults() {
		return text, ClearPatch(), nil
	}
	return text, statePatch(next), nil
}

// generate calls the generator once. On failure it returns the apology for
// the failure kind and generated=false.
func (s *ConversationService) generate(ctx context.Context, t *turn, req GenerationRequest) (string, bool) {
	req.UserID, req.Message, req.Locale = t.userID, t.message, t.locale

	var (
		text string
		err  = providers.ErrGeneratorUnavailable
	)
	if s.generation != nil {
		text, err = s.generation.Generate(ctx, req)
	}
	if err == nil && text != "" {
		return text, true
	}
	if err == nil {
		err = errors.New("generator returned empty text")
	}

	kind := providers.ClassifyGeneratorError(err)
	observability.RecordGeneratorFailure(ctx, s.metrics, string(kind))
	observability.UserLogger(ctx, t.userID).Warn().Err(err).Str("failure", string(kind)).Msg("generator call failed")
	return s.responses.Apology(kind, t.message, t.locale), false
}

func mentionsNotFound(text string) bool {
	return utils.ContainsAny(text, notFoundPhrases)
}

// logMessages persists both sides of the turn. Failures are logged only.
func (s *ConversationService) logMessages(ctx context.Context, t *turn, reply *entities.Reply) {
	if s.messages == nil {
		return
	}
	logger := observability.UserLogger(ctx, t.userID)

	in := &entities.Message{
		ConversationID: t.userID,
		Role:           entities.MessageRoleUser,
		Content:        t.message,
		Metadata:       map[string]any{"intent": string(t.intent), "locale": string(t.locale)},
	}
	if err := s.messages.Create(ctx, in); err != nil {
		logger.Warn().Err(err).Msg("failed to persist user message")
	}

	out := &entities.Message{
		ConversationID: t.userID,
		Role:           entities.MessageRoleAssistant,
		Content:        reply.ReplyText,
		Metadata:       map[string]any{"action": string(t.action), "state": string(t.state)},
	}
	if err := s.messages.Create(ctx, out); err != nil {
		logger.Warn().Err(err).Msg("failed to persist assistant message")
	}
}
