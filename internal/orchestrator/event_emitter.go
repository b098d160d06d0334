package orchestrator

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// EventEmitter delivers orchestrator events to a subscriber.
// A nil *EventEmitter discards every event.
type EventEmitter struct {
	events       chan Event
	timeout      time.Duration
	logger       *zap.Logger
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{
		events:  make(chan Event, bufferSize),
		timeout: 100 * time.Millisecond,
		logger:  logger,
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it waits briefly before dropping the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(e.timeout):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			e.logger.Warn("event channel full, dropped event",
				zap.Uint64("dropped", count),
				zap.String("type", string(event.Type)))
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	if e == nil {
		return 0
	}
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel.
func (e *EventEmitter) Close() {
	close(e.events)
}
