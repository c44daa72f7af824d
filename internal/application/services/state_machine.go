package services

import (
	"strconv"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
)

// StateMachine maps (state, intent) to the next state and the action to run.
// It is a pure function of its inputs. Search outcomes are written by the
// orchestrator afterwards, since they depend on results.
type StateMachine struct{}

func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

func (m *StateMachine) Transition(s *entities.Session, in entities.Intent) (entities.SessionState, entities.Action) {
	state := effectiveState(s)
	question := in.Data.Text

	switch in.Type {
	case entities.IntentGlobalCommand:
		if in.Data.Command == entities.CommandClear {
			return entities.SessionStateIdle, entities.Action{Type: entities.ActionClearSession}
		}
		return entities.SessionStateIdle, entities.Action{Type: entities.ActionShowMainMenu}

	case entities.IntentQuickReply:
		return m.quickReply(s, state, in.Data)

	case entities.IntentFAQ:
		return entities.SessionStateFAQMode, entities.Action{Type: entities.ActionShowFAQ, FAQ: in.Data.FAQ, Question: question}

	case entities.IntentSelectEvent:
		return m.selectEvent(s, state, in.Data.SelectionIndex)

	case entities.IntentSearch:
		return entities.SessionStateSearching, entities.Action{Type: entities.ActionSearchEvents, Query: in.Data.Query, Question: question}

	case entities.IntentAskTime, entities.IntentAskPrice, entities.IntentAskVenue,
		entities.IntentAskArtist, entities.IntentAskDetails:
		return m.answer(s, state, in.Type.TopicOf(), question)

	case entities.IntentFollowUpQuestion:
		return m.followUp(s, state, in.Data)

	case entities.IntentGeneral:
		return m.general(s, state, in.Data)
	}
	return state, entities.Action{Type: entities.ActionNoAction}
}

// effectiveState repairs a state whose context no longer supports it.
func effectiveState(s *entities.Session) entities.SessionState {
	if s == nil || !s.State.Valid() {
		return entities.SessionStateIdle
	}
	switch s.State {
	case entities.SessionStateEventSelected:
		if s.Context.SelectedEvent == nil {
			return entities.SessionStateIdle
		}
	case entities.SessionStateEventList:
		if !s.HasResults() {
			return entities.SessionStateIdle
		}
	case entities.SessionStateSearching:
		return entities.SessionStateIdle
	}
	return s.State
}

func (m *StateMachine) quickReply(s *entities.Session, state entities.SessionState, d entities.IntentData) (entities.SessionState, entities.Action) {
	noAction := entities.Action{Type: entities.ActionNoAction, Question: string(d.QuickReply)}
	selected := state == entities.SessionStateEventSelected

	switch d.QuickReply {
	case entities.QuickReplySearch:
		if d.QuickReplyArg == "" {
			return state, noAction
		}
		return entities.SessionStateSearching, entities.Action{Type: entities.ActionSearchEvents, Question: d.QuickReplyArg}

	case entities.QuickReplyList:
		if !s.HasResults() {
			return state, noAction
		}
		return entities.SessionStateEventList, entities.Action{Type: entities.ActionShowEventList, Events: s.Context.LastSearchResults}

	case entities.QuickReplyDetails:
		if n, err := strconv.Atoi(d.QuickReplyArg); err == nil && s.HasResults() {
			return m.selectEvent(s, state, n-1)
		}
		if !selected {
			return state, noAction
		}
		return entities.SessionStateEventSelected, entities.Action{
			Type: entities.ActionShowEventDetails, Event: s.Context.SelectedEvent, Index: selectedIndex(s),
		}

	case entities.QuickReplyTime, entities.QuickReplyPrice, entities.QuickReplyVenue, entities.QuickReplyArtist:
		if !selected && state != entities.SessionStateEventList {
			return state, noAction
		}
		return m.answer(s, state, quickReplyTopic(d.QuickReply), d.Text)

	case entities.QuickReplyFAQ:
		return entities.SessionStateFAQMode, entities.Action{Type: entities.ActionShowFAQ}

	case entities.QuickReplyMainMenu:
		return entities.SessionStateIdle, entities.Action{Type: entities.ActionShowMainMenu}

	case entities.QuickReplyAddFavorite:
		if !selected {
			return state, noAction
		}
		return state, entities.Action{Type: entities.ActionAddFavorite, Event: s.Context.SelectedEvent}

	case entities.QuickReplyShowFavorites:
		return state, entities.Action{Type: entities.ActionShowFavorites}

	case entities.QuickReplyClear:
		return entities.SessionStateIdle, entities.Action{Type: entities.ActionClearSession}
	}
	return state, noAction
}

func quickReplyTopic(kind entities.QuickReplyKind) entities.QuestionTopic {
	switch kind {
	case entities.QuickReplyTime:
		return entities.TopicTime
	case entities.QuickReplyPrice:
		return entities.TopicPrice
	case entities.QuickReplyVenue:
		return entities.TopicVenue
	case entities.QuickReplyArtist:
		return entities.TopicArtist
	}
	return entities.TopicDetails
}

// selectEvent opens result i, or shows the list again when i is out of range.
func (m *StateMachine) selectEvent(s *entities.Session, state entities.SessionState, i int) (entities.SessionState, entities.Action) {
	if ev, ok := s.ResultAt(i); ok {
		return entities.SessionStateEventSelected, entities.Action{Type: entities.ActionShowEventDetails, Event: ev, Index: i}
	}
	if s.HasResults() {
		return entities.SessionStateEventList, entities.Action{Type: entities.ActionShowEventList, Events: s.Context.LastSearchResults}
	}
	return state, entities.Action{Type: entities.ActionNoAction}
}

// answer resolves a question against the selected event, or against the
// whole list when the user is still browsing.
func (m *StateMachine) answer(s *entities.Session, state entities.SessionState, topic entities.QuestionTopic, question string) (entities.SessionState, entities.Action) {
	switch state {
	case entities.SessionStateEventSelected:
		return entities.SessionStateEventSelected, entities.Action{
			Type: entities.ActionAnswerEventQuestion, Event: s.Context.SelectedEvent,
			Index: selectedIndex(s), Topic: topic, Question: question,
		}
	case entities.SessionStateEventList:
		return entities.SessionStateEventList, entities.Action{
			Type: entities.ActionAnswerEventQuestion, Events: s.Context.LastSearchResults,
			Topic: topic, Question: question,
		}
	}
	return state, entities.Action{Type: entities.ActionGeneralQuestion, Question: question}
}

func (m *StateMachine) followUp(s *entities.Session, state entities.SessionState, d entities.IntentData) (entities.SessionState, entities.Action) {
	q := d.Query
	topic := entities.TopicDetails
	if q != nil && q.FollowUpTopic != entities.TopicNone {
		topic = q.FollowUpTopic
	}

	if q != nil && q.QuotedTitle != "" {
		if i := findByTitle(s.Context.LastSearchResults, q.QuotedTitle); i >= 0 {
			return entities.SessionStateEventSelected, entities.Action{
				Type: entities.ActionAnswerEventQuestion, Event: s.Context.LastSearchResults[i],
				Index: i, Topic: topic, Question: d.Text,
			}
		}
		title := &entities.ParsedQuery{
			QueryType:   entities.QueryTypeGeneral,
			Keywords:    []string{q.QuotedTitle},
			QuotedTitle: q.QuotedTitle,
			Raw:         q.Raw,
		}
		return entities.SessionStateSearching, entities.Action{
			Type: entities.ActionSearchEvents, Query: title, Topic: topic, Question: d.Text,
		}
	}
	return m.answer(s, state, topic, d.Text)
}

func (m *StateMachine) general(s *entities.Session, state entities.SessionState, d entities.IntentData) (entities.SessionState, entities.Action) {
	switch state {
	case entities.SessionStateEventList:
		return m.answer(s, state, entities.TopicNone, d.Text)
	case entities.SessionStateEventSelected:
		if d.LooksLikeSearch {
			return m.answer(s, state, entities.TopicNone, d.Text)
		}
	default:
		if d.LooksLikeSearch {
			return entities.SessionStateSearching, entities.Action{Type: entities.ActionSearchEvents, Query: d.Query, Question: d.Text}
		}
		if state == entities.SessionStateFAQMode {
			return state, entities.Action{Type: entities.ActionGeneralQuestion, Question: d.Text}
		}
		return entities.SessionStateIdle, entities.Action{Type: entities.ActionGeneralQuestion, Question: d.Text}
	}
	return state, entities.Action{Type: entities.ActionGeneralQuestion, Question: d.Text}
}

func selectedIndex(s *entities.Session) int {
	if s.Context.SelectedEventIndex != nil {
		return *s.Context.SelectedEventIndex
	}
	return 0
}
