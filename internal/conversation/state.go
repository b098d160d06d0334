package conversation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ErrInvalidTransition is returned by Fire when the event is not allowed in
// the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Event drives the conversation state machine.
type Event string

const (
	// EventInput starts processing a user turn.
	EventInput Event = "input"
	// EventListen moves an idle conversation to waiting for input.
	EventListen Event = "listen"
	// EventAmbiguous parks the turn on a clarification question.
	EventAmbiguous Event = "ambiguous"
	// EventExecute hands the turn to collaborator steps.
	EventExecute Event = "execute"
	// EventReport starts rendering feedback.
	EventReport Event = "report"
	// EventDone finishes the turn.
	EventDone Event = "done"
	// EventFail aborts the turn from any state.
	EventFail Event = "fail"
)

type transitionKey struct {
	from  models.ConversationState
	event Event
}

var transitions = map[transitionKey]models.ConversationState{
	{models.StateIdle, EventInput}:       models.StateProcessing,
	{models.StateListening, EventInput}:  models.StateProcessing,
	{models.StateClarifying, EventInput}: models.StateProcessing,
	{models.StateReporting, EventInput}:  models.StateProcessing,

	{models.StateIdle, EventListen}: models.StateListening,

	{models.StateProcessing, EventAmbiguous}: models.StateClarifying,
	{models.StateProcessing, EventExecute}:   models.StateExecuting,
	{models.StateProcessing, EventReport}:    models.StateReporting,
	{models.StateExecuting, EventReport}:     models.StateReporting,

	{models.StateReporting, EventDone}:  models.StateIdle,
	{models.StateClarifying, EventDone}: models.StateIdle,
	{models.StateProcessing, EventDone}: models.StateIdle,
}

// Transition returns the state that event leads to from the given state.
func Transition(from models.ConversationState, event Event) (models.ConversationState, error) {
	if event == EventFail {
		return models.StateIdle, nil
	}
	to, ok := transitions[transitionKey{from, event}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, event)
	}
	return to, nil
}

// Fire applies event to the current state. The state is unchanged on error.
func (m *Manager) Fire(event Event) error {
	to, err := Transition(m.ctx.State, event)
	if err != nil {
		return err
	}
	m.logger.Debug("state transition",
		zap.String("from", string(m.ctx.State)),
		zap.String("event", string(event)),
		zap.String("to", string(to)))
	m.ctx.State = to
	return nil
}

// State returns the current conversation state.
func (m *Manager) State() models.ConversationState {
	return m.ctx.State
}

// SetState sets the state without consulting the transition table.
func (m *Manager) SetState(s models.ConversationState) {
	m.ctx.State = s
}
