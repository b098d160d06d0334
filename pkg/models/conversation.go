package models

import "time"

// Role identifies who produced a dialogue turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// ConversationState is the pipeline's position in the turn state machine.
type ConversationState string

const (
	// StateIdle means no turn is in flight.
	StateIdle ConversationState = "idle"
	// StateListening means the conversation is waiting for user input.
	StateListening ConversationState = "listening"
	// StateProcessing means a turn is being classified and executed.
	StateProcessing ConversationState = "processing"
	// StateClarifying means the last turn was too ambiguous and a question was asked.
	StateClarifying ConversationState = "clarifying"
	// StateExecuting means collaborator steps are running.
	StateExecuting ConversationState = "executing"
	// StateReporting means feedback is being rendered.
	StateReporting ConversationState = "reporting"
)

// Valid returns true if the state is a known value.
func (s ConversationState) Valid() bool {
	switch s {
	case StateIdle, StateListening, StateProcessing, StateClarifying, StateExecuting, StateReporting:
		return true
	default:
		return false
	}
}

// TopicStatus is the lifecycle position of a topic.
type TopicStatus string

const (
	TopicActive    TopicStatus = "active"
	TopicPaused    TopicStatus = "paused"
	TopicCompleted TopicStatus = "completed"
	TopicAbandoned TopicStatus = "abandoned"
)

// DialogueTurn is one append-only entry in the conversation history.
type DialogueTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Intent    *Intent   `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic is a logical thread of turns with stack-like pause/resume.
type Topic struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Context   map[string]any `json:"context,omitempty"`
	Status    TopicStatus    `json:"status"`
	TurnIDs   []string       `json:"turn_ids,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

// ConversationContext is the full mutable state of one conversation.
// It is owned by exactly one conversation manager.
type ConversationContext struct {
	ConversationID string            `json:"conversation_id"`
	Turns          []*DialogueTurn   `json:"turns"`
	Topics         []*Topic          `json:"topics"`
	ActiveTopicID  string            `json:"active_topic_id,omitempty"`
	References     map[string]string `json:"references"`
	MemoryKeys     []string          `json:"memory_keys,omitempty"`
	State          ConversationState `json:"state"`
	CreatedAt      time.Time         `json:"created_at"`
}
