package orchestrator

import (
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/conversation"
	"github.com/ShayCichocki/parley/internal/decompose"
	"github.com/ShayCichocki/parley/internal/intent"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/internal/metrics"
)

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
// Components left nil are built from cfg during construction.
type orchestratorOptions struct {
	cfg      *config.Config
	lexicon  lexicon.Source
	logger   *zap.Logger
	metrics  *metrics.Pipeline
	events   *EventEmitter
	recorder Recorder

	classifier   *intent.Classifier
	decomposer   *decompose.Decomposer
	conversation *conversation.Manager

	requirements RequirementExtractor
	specs        SpecGenerator
	planner      CodePlanner
	translator   CommandTranslator
	feedback     FeedbackRenderer
}

// WithConfig sets the configuration used to build default components.
func WithConfig(cfg *config.Config) Option {
	return func(o *orchestratorOptions) { o.cfg = cfg }
}

// WithLexicon sets the keyword tables shared by the default classifier,
// decomposer and conversation manager.
func WithLexicon(src lexicon.Source) Option {
	return func(o *orchestratorOptions) { o.lexicon = src }
}

// WithLogger sets the logger passed to every default component.
func WithLogger(l *zap.Logger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Pipeline) Option {
	return func(o *orchestratorOptions) { o.metrics = m }
}

// WithEvents sets the event emitter.
func WithEvents(e *EventEmitter) Option {
	return func(o *orchestratorOptions) { o.events = e }
}

// WithRecorder persists every finished turn.
func WithRecorder(r Recorder) Option {
	return func(o *orchestratorOptions) { o.recorder = r }
}

// WithClassifier sets a custom classifier (mainly for testing).
func WithClassifier(c *intent.Classifier) Option {
	return func(o *orchestratorOptions) { o.classifier = c }
}

// WithDecomposer sets a custom task decomposer (mainly for testing).
func WithDecomposer(d *decompose.Decomposer) Option {
	return func(o *orchestratorOptions) { o.decomposer = d }
}

// WithConversation sets a custom conversation manager.
func WithConversation(m *conversation.Manager) Option {
	return func(o *orchestratorOptions) { o.conversation = m }
}

// WithRequirementExtractor replaces the requirement extraction step.
func WithRequirementExtractor(r RequirementExtractor) Option {
	return func(o *orchestratorOptions) { o.requirements = r }
}

// WithSpecGenerator replaces the spec generation step.
func WithSpecGenerator(g SpecGenerator) Option {
	return func(o *orchestratorOptions) { o.specs = g }
}

// WithCodePlanner replaces the code planning step.
func WithCodePlanner(p CodePlanner) Option {
	return func(o *orchestratorOptions) { o.planner = p }
}

// WithTranslator replaces the command translation step.
func WithTranslator(t CommandTranslator) Option {
	return func(o *orchestratorOptions) { o.translator = t }
}

// WithFeedback replaces the feedback renderer.
func WithFeedback(f FeedbackRenderer) Option {
	return func(o *orchestratorOptions) { o.feedback = f }
}
