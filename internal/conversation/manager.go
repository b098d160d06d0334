// Package conversation tracks dialogue turns, topics, short-reference
// bindings and the turn state machine for a single conversation.
package conversation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/pkg/models"
)

// topicNameWords is how many leading words name an automatically started topic.
const topicNameWords = 5

// minReferentRunes is the length a capitalized word must exceed to become a referent.
const minReferentRunes = 3

// Manager owns one ConversationContext. It is not safe for concurrent use;
// hosts serving several conversations create one Manager per conversation.
type Manager struct {
	maxTurns    int
	personality map[string]string
	lexicon     lexicon.Source
	logger      *zap.Logger
	now         func() time.Time

	ctx *models.ConversationContext
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxTurns bounds the retained turn history.
func WithMaxTurns(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxTurns = n
		}
	}
}

// WithPersonality overrides personality attributes such as "tone".
func WithPersonality(p map[string]string) Option {
	return func(m *Manager) {
		for k, v := range p {
			m.personality[k] = v
		}
	}
}

// WithLexicon sets the source of tracked reference tokens.
func WithLexicon(src lexicon.Source) Option {
	return func(m *Manager) {
		if src != nil {
			m.lexicon = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Manager with an empty, idle context.
func New(opts ...Option) *Manager {
	m := &Manager{
		maxTurns:    config.Default().Conversation.MaxTurns,
		personality: map[string]string{"tone": "professional", "language": "tr"},
		lexicon:     lexicon.DefaultSource(),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx = m.newContext()
	return m
}

func (m *Manager) newContext() *models.ConversationContext {
	return &models.ConversationContext{
		ConversationID: uuid.NewString(),
		References:     make(map[string]string),
		State:          models.StateIdle,
		CreatedAt:      m.now(),
	}
}

// Context returns the live conversation context. Callers must treat it as read-only.
func (m *Manager) Context() *models.ConversationContext {
	return m.ctx
}

// Personality returns a copy of the personality attributes.
func (m *Manager) Personality() map[string]string {
	out := make(map[string]string, len(m.personality))
	for k, v := range m.personality {
		out[k] = v
	}
	return out
}

// MaxTurns returns the turn history bound.
func (m *Manager) MaxTurns() int {
	return m.maxTurns
}

// AddUserTurn records a user turn, rebinds short references and routes the
// turn into the active topic, starting one if none is active.
func (m *Manager) AddUserTurn(content string, in *models.Intent) *models.DialogueTurn {
	turn := m.appendTurn(models.RoleUser, content, in)
	m.updateReferences(content)

	topic := m.ActiveTopic()
	if topic == nil {
		topic = m.StartTopic(topicName(content), nil)
	}
	topic.TurnIDs = append(topic.TurnIDs, turn.ID)
	return turn
}

// AddSystemTurn records a system turn and adds it to the active topic if any.
func (m *Manager) AddSystemTurn(content string) *models.DialogueTurn {
	turn := m.appendTurn(models.RoleSystem, content, nil)
	if topic := m.ActiveTopic(); topic != nil {
		topic.TurnIDs = append(topic.TurnIDs, turn.ID)
	}
	return turn
}

func (m *Manager) appendTurn(role models.Role, content string, in *models.Intent) *models.DialogueTurn {
	turn := &models.DialogueTurn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Intent:    in,
		Timestamp: m.now(),
	}
	m.ctx.Turns = append(m.ctx.Turns, turn)
	if over := len(m.ctx.Turns) - m.maxTurns; over > 0 {
		m.ctx.Turns = append([]*models.DialogueTurn(nil), m.ctx.Turns[over:]...)
	}
	return turn
}

// updateReferences binds every tracked token to the last capitalized word
// longer than three characters. Turns without such a word keep old bindings.
func (m *Manager) updateReferences(content string) {
	var referent string
	for _, tok := range lexicon.Tokenize(content) {
		if lexicon.IsCapitalized(tok.Text) && utf8.RuneCountInString(tok.Text) > minReferentRunes {
			referent = tok.Text
		}
	}
	if referent == "" {
		return
	}
	for _, ref := range m.lexicon.Current().ReferenceTokens {
		m.ctx.References[ref] = referent
	}
	m.logger.Debug("bound references", zap.String("referent", referent))
}

// ResolveReference replaces whole-word, case-insensitive occurrences of bound
// reference tokens with their referent. Other text is returned unchanged.
func (m *Manager) ResolveReference(text string) string {
	if len(m.ctx.References) == 0 {
		return text
	}

	var b strings.Builder
	last, replaced := 0, false
	for _, tok := range lexicon.Tokenize(text) {
		value, ok := m.ctx.References[tok.Lower]
		if !ok {
			continue
		}
		b.WriteString(text[last:tok.Start])
		b.WriteString(value)
		last, replaced = tok.End, true
	}
	if !replaced {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// StartTopic pauses the active topic, if any, and makes a new topic active.
func (m *Manager) StartTopic(name string, topicCtx map[string]any) *models.Topic {
	if active := m.ActiveTopic(); active != nil {
		active.Status = models.TopicPaused
	}
	if topicCtx == nil {
		topicCtx = make(map[string]any)
	}

	topic := &models.Topic{
		ID:        uuid.NewString(),
		Name:      name,
		Context:   topicCtx,
		Status:    models.TopicActive,
		StartedAt: m.now(),
	}
	m.ctx.Topics = append(m.ctx.Topics, topic)
	m.ctx.ActiveTopicID = topic.ID

	m.logger.Debug("started topic", zap.String("topic_id", topic.ID), zap.String("name", name))
	return topic
}

// CompleteTopic marks a topic completed. An empty id means the active topic.
// It returns false if the topic is unknown or already ended.
func (m *Manager) CompleteTopic(id string) bool {
	return m.endTopic(id, models.TopicCompleted)
}

// AbandonTopic ends a topic without completing it. Resumption follows the
// same rules as CompleteTopic.
func (m *Manager) AbandonTopic(id string) bool {
	return m.endTopic(id, models.TopicAbandoned)
}

func (m *Manager) endTopic(id string, status models.TopicStatus) bool {
	if id == "" {
		id = m.ctx.ActiveTopicID
	}
	topic := m.topic(id)
	if topic == nil || topic.EndedAt != nil {
		return false
	}

	wasActive := topic.Status == models.TopicActive
	ended := m.now()
	topic.Status = status
	topic.EndedAt = &ended

	if wasActive {
		m.ctx.ActiveTopicID = ""
		if resumed := m.lastPaused(); resumed != nil {
			resumed.Status = models.TopicActive
			m.ctx.ActiveTopicID = resumed.ID
		}
	}
	return true
}

func (m *Manager) topic(id string) *models.Topic {
	if id == "" {
		return nil
	}
	for _, t := range m.ctx.Topics {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// lastPaused returns the most recently started paused topic. Topics are
// paused in start order, so this pops the pause stack.
func (m *Manager) lastPaused() *models.Topic {
	for i := len(m.ctx.Topics) - 1; i >= 0; i-- {
		if m.ctx.Topics[i].Status == models.TopicPaused {
			return m.ctx.Topics[i]
		}
	}
	return nil
}

// ActiveTopic returns the active topic, or nil.
func (m *Manager) ActiveTopic() *models.Topic {
	return m.topic(m.ctx.ActiveTopicID)
}

// RecentContext returns up to the last n turns, oldest first.
func (m *Manager) RecentContext(n int) []*models.DialogueTurn {
	if n <= 0 {
		return nil
	}
	turns := m.ctx.Turns
	if n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	return append([]*models.DialogueTurn(nil), turns...)
}

// AddMemoryKey records a key once.
func (m *Manager) AddMemoryKey(key string) {
	for _, k := range m.ctx.MemoryKeys {
		if k == key {
			return
		}
	}
	m.ctx.MemoryKeys = append(m.ctx.MemoryKeys, key)
}

// TurnCount returns the number of retained turns.
func (m *Manager) TurnCount() int {
	return len(m.ctx.Turns)
}

// TopicCount returns the number of topics ever started since the last reset.
func (m *Manager) TopicCount() int {
	return len(m.ctx.Topics)
}

// Reset discards the whole context and starts a fresh, idle one.
func (m *Manager) Reset() {
	m.logger.Debug("resetting conversation", zap.String("conversation_id", m.ctx.ConversationID))
	m.ctx = m.newContext()
}

func topicName(content string) string {
	words := strings.Fields(content)
	if len(words) > topicNameWords {
		words = words[:topicNameWords]
	}
	if len(words) == 0 {
		return "untitled"
	}
	return strings.Join(words, " ")
}
