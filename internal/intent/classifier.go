// Package intent classifies free-text utterances into intents.
//
// Classification is keyword driven: the lexicon's category table scores each
// category, the entity table extracts typed values, and a fixed set of
// deictic words is reported as context references. Every numeric constant
// comes from config.ClassifierConfig.
package intent

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/pkg/models"
)

// Ambiguity reasons.
const (
	ReasonUnclear    = "intent unclear"
	ReasonNoCategory = "category undetected"
	ReasonTooShort   = "too short, more detail needed"
)

const (
	exactEntityConfidence     = 0.8
	substringEntityConfidence = 0.6
	wholeWordScore            = 1.0
	substringScore            = 0.5
)

// Classifier turns raw text into intents and remembers every intent it
// produced so ambiguous ones can be resolved later.
// A Classifier belongs to one conversation and is not safe for concurrent use.
type Classifier struct {
	cfg     config.ClassifierConfig
	lexicon lexicon.Source
	logger  *zap.Logger
	now     func() time.Time

	history []*models.Intent
	byID    map[string]*models.Intent
	scratch map[string]any
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithConfig overrides the default classifier constants.
func WithConfig(cfg config.ClassifierConfig) Option {
	return func(c *Classifier) {
		c.cfg = cfg
	}
}

// WithThreshold overrides only the clarification threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Classifier) {
		c.cfg.ClarificationThreshold = threshold
	}
}

// WithLexicon sets the table source.
func WithLexicon(src lexicon.Source) Option {
	return func(c *Classifier) {
		if src != nil {
			c.lexicon = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Classifier using the embedded lexicon and default constants.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		cfg:     config.Default().Classifier,
		lexicon: lexicon.DefaultSource(),
		logger:  zap.NewNop(),
		now:     time.Now,
		byID:    make(map[string]*models.Intent),
		scratch: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the clarification threshold in effect.
func (c *Classifier) Threshold() float64 {
	return c.cfg.ClarificationThreshold
}

// Parse classifies text and records the resulting intent in the history.
func (c *Classifier) Parse(text string) *models.Intent {
	in := c.classify(text)
	c.record(in)

	c.logger.Debug("classified input",
		zap.String("intent_id", in.ID),
		zap.String("category", string(in.Category)),
		zap.String("action", in.Action),
		zap.Float64("confidence", in.Confidence),
		zap.String("level", string(in.ConfidenceLevel)),
		zap.Strings("ambiguities", in.Ambiguities))
	return in
}

// Classify parses text and reports whether it can proceed or needs a
// clarification turn.
func (c *Classifier) Classify(text string) Outcome {
	return outcomeOf(c.Parse(text))
}

// ResolveAmbiguity re-derives an intent from the original input of intentID
// followed by the clarification. The new intent has its ambiguities cleared
// but keeps the confidence computed from the combined text.
// It returns false if no intent with that id was produced by this classifier.
func (c *Classifier) ResolveAmbiguity(intentID, clarification string) (*models.Intent, bool) {
	original, ok := c.byID[intentID]
	if !ok {
		return nil, false
	}

	in := c.classify(original.RawInput + " " + clarification)
	in.Ambiguities = nil
	in.Resolved = true
	in.ConfidenceLevel = c.level(in.Confidence, false)
	c.record(in)

	c.logger.Debug("resolved ambiguity",
		zap.String("original_id", intentID),
		zap.String("intent_id", in.ID),
		zap.String("category", string(in.Category)))
	return in, true
}

// Intent returns a previously produced intent.
func (c *Classifier) Intent(id string) (*models.Intent, bool) {
	in, ok := c.byID[id]
	return in, ok
}

// HistoryCount returns how many intents have been produced.
func (c *Classifier) HistoryCount() int {
	return len(c.history)
}

// AddContext stores a value in the scratchpad. The classifier never reads it;
// it is a hook for collaborators.
func (c *Classifier) AddContext(key string, value any) {
	c.scratch[key] = value
}

// GetContext returns a scratchpad value, or fallback if the key is unset.
func (c *Classifier) GetContext(key string, fallback any) any {
	if v, ok := c.scratch[key]; ok {
		return v
	}
	return fallback
}

func (c *Classifier) record(in *models.Intent) {
	c.history = append(c.history, in)
	c.byID[in.ID] = in
}

func (c *Classifier) classify(text string) *models.Intent {
	tables := c.lexicon.Current()
	tokens := lexicon.Tokenize(text)
	lower := strings.ToLower(text)

	category, action, catConf := c.scoreCategories(tables, tokens, lower)
	entities := extractEntities(tables, tokens)
	refs := contextReferences(tables, tokens)

	entityConf := c.cfg.DefaultEntityConfidence
	if len(entities) > 0 {
		sum := 0.0
		for _, e := range entities {
			sum += e.Confidence
		}
		entityConf = sum / float64(len(entities))
	}
	confidence := clamp(c.cfg.CategoryWeight*catConf + c.cfg.EntityWeight*entityConf)

	var ambiguities []string
	if confidence < c.cfg.ClarificationThreshold {
		ambiguities = append(ambiguities, ReasonUnclear)
	}
	if category == models.CategoryUnknown {
		ambiguities = append(ambiguities, ReasonNoCategory)
	}
	if len(strings.Fields(text)) < 2 {
		ambiguities = append(ambiguities, ReasonTooShort)
	}

	var params map[string]any
	if len(entities) > 0 {
		params = make(map[string]any, len(entities))
		for _, e := range entities {
			params[string(e.Type)] = e.Value
		}
	}

	return &models.Intent{
		ID:                uuid.NewString(),
		RawInput:          text,
		Category:          category,
		Action:            action,
		Entities:          entities,
		Confidence:        confidence,
		ConfidenceLevel:   c.level(confidence, len(ambiguities) > 0),
		Parameters:        params,
		ContextReferences: refs,
		Ambiguities:       ambiguities,
		Resolved:          len(ambiguities) == 0,
		CreatedAt:         c.now(),
	}
}

// scoreCategories returns the winning category, its first matched keyword and
// its confidence. Ties go to the category listed first.
func (c *Classifier) scoreCategories(tables *lexicon.Tables, tokens []lexicon.Token, lower string) (models.IntentCategory, string, float64) {
	best := models.CategoryUnknown
	bestScore := 0.0
	bestAction := ""
	scored := 0

	for _, entry := range tables.Categories {
		score := 0.0
		action := ""
		for _, kw := range entry.Keywords {
			var hit float64
			switch {
			case lexicon.HasPhrase(tokens, kw):
				hit = wholeWordScore
			case strings.Contains(lower, kw):
				hit = substringScore
			default:
				continue
			}
			score += hit
			if action == "" {
				action = kw
			}
		}
		if score == 0 {
			continue
		}
		scored++
		if score > bestScore {
			best, bestScore, bestAction = entry.Category, score, action
		}
	}

	if scored == 0 {
		return models.CategoryUnknown, "", c.cfg.UnknownConfidence
	}

	conf := bestScore * c.cfg.KeywordWeight
	if conf > 1 {
		conf = 1
	}
	if scored == 1 {
		conf += c.cfg.SingleCategoryBonus
	}
	return best, bestAction, clamp(conf)
}

// extractEntities returns at most one entity per type, in table order.
func extractEntities(tables *lexicon.Tables, tokens []lexicon.Token) []models.Entity {
	var entities []models.Entity
	for _, entry := range tables.Entities {
		if e, ok := findEntity(entry, tokens); ok {
			entities = append(entities, e)
		}
	}
	return entities
}

func findEntity(entry lexicon.EntityPatterns, tokens []lexicon.Token) (models.Entity, bool) {
	for i, tok := range tokens {
		for _, pattern := range entry.Patterns {
			var conf float64
			switch {
			case tok.Lower == pattern:
				conf = exactEntityConfidence
			case strings.Contains(tok.Lower, pattern):
				conf = substringEntityConfidence
			default:
				continue
			}
			value := tok.Text
			if i+1 < len(tokens) {
				value = tokens[i+1].Text
			}
			return models.Entity{
				Name:       tok.Text,
				Type:       entry.Type,
				Value:      value,
				Confidence: conf,
				Span:       models.Span{Start: tok.Start, End: tok.End},
			}, true
		}
	}
	return models.Entity{}, false
}

// contextReferences reports which deictic words occur, in table order.
func contextReferences(tables *lexicon.Tables, tokens []lexicon.Token) []string {
	var refs []string
	for _, d := range tables.Deictics {
		if lexicon.HasPhrase(tokens, d) {
			refs = append(refs, d)
		}
	}
	return refs
}

func (c *Classifier) level(confidence float64, ambiguous bool) models.ConfidenceLevel {
	switch {
	case confidence >= c.cfg.HighThreshold:
		return models.ConfidenceHigh
	case confidence >= c.cfg.MediumThreshold:
		return models.ConfidenceMedium
	case ambiguous:
		return models.ConfidenceAmbiguous
	default:
		return models.ConfidenceLow
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
