package orchestrator

import (
	"time"

	"github.com/ShayCichocki/parley/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTurnStarted indicates a turn has started processing.
	EventTurnStarted EventType = "turn_started"
	// EventStepCompleted indicates one pipeline step finished.
	EventStepCompleted EventType = "step_completed"
	// EventStepSkipped indicates a step was skipped because its input was missing.
	EventStepSkipped EventType = "step_skipped"
	// EventClarification indicates the turn stopped on a clarification question.
	EventClarification EventType = "clarification"
	// EventTurnCompleted indicates the turn finished successfully.
	EventTurnCompleted EventType = "turn_completed"
	// EventTurnFailed indicates the turn failed.
	EventTurnFailed EventType = "turn_failed"
)

// Event represents an event emitted by the orchestrator.
// These events are used to update the TUI and track progress.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// ResultID is the id of the pipeline result the event belongs to.
	ResultID string
	// Step is the step that completed or was skipped, if applicable.
	Step models.Step
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time since the turn started.
	Duration time.Duration
}
