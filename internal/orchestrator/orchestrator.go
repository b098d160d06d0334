package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/codeplan"
	"github.com/ShayCichocki/parley/internal/config"
	"github.com/ShayCichocki/parley/internal/conversation"
	"github.com/ShayCichocki/parley/internal/decompose"
	"github.com/ShayCichocki/parley/internal/feedback"
	"github.com/ShayCichocki/parley/internal/intent"
	"github.com/ShayCichocki/parley/internal/lexicon"
	"github.com/ShayCichocki/parley/internal/metrics"
	"github.com/ShayCichocki/parley/internal/requirements"
	"github.com/ShayCichocki/parley/internal/specgen"
	"github.com/ShayCichocki/parley/internal/translate"
	"github.com/ShayCichocki/parley/pkg/models"
)

// ClarificationQuestion is asked when the intent is ambiguous. The
// ambiguity reasons are offered as options.
const ClarificationQuestion = "Isteginizi tam anlayamadim, biraz daha ayrinti verebilir misiniz?"

// PreviousErrorKey is the classifier scratchpad key RecoverFromError writes.
const PreviousErrorKey = "previous_error"

const titleWords = 6

// Orchestrator runs the per-turn pipeline for one conversation.
// It is not safe for concurrent use; hosts create one per conversation.
type Orchestrator struct {
	classifier   *intent.Classifier
	decomposer   *decompose.Decomposer
	conversation *conversation.Manager

	requirements RequirementExtractor
	specs        SpecGenerator
	planner      CodePlanner
	translator   CommandTranslator
	feedback     FeedbackRenderer

	logger   *zap.Logger
	metrics  *metrics.Pipeline
	events   *EventEmitter
	recorder Recorder
	now      func() time.Time

	results      map[string]*models.PipelineResult
	order        []string
	interactions int
	errCount     int
}

// New creates an Orchestrator. Components not supplied through options are
// built from the configuration, or from config.Default when none is given.
func New(opts ...Option) *Orchestrator {
	o := &orchestratorOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.lexicon == nil {
		o.lexicon = lexicon.DefaultSource()
	}

	if o.classifier == nil {
		o.classifier = intent.New(
			intent.WithConfig(o.cfg.Classifier),
			intent.WithLexicon(o.lexicon),
			intent.WithLogger(o.logger.Named("intent")))
	}
	if o.decomposer == nil {
		o.decomposer = decompose.New(
			decompose.WithMaxSubtasks(o.cfg.Decomposer.MaxSubtasks),
			decompose.WithLexicon(o.lexicon),
			decompose.WithLogger(o.logger.Named("decompose")))
	}
	if o.conversation == nil {
		o.conversation = conversation.New(
			conversation.WithMaxTurns(o.cfg.Conversation.MaxTurns),
			conversation.WithLexicon(o.lexicon),
			conversation.WithLogger(o.logger.Named("conversation")))
	}
	if o.requirements == nil {
		o.requirements = requirements.New(requirements.WithLogger(o.logger.Named("requirements")))
	}
	if o.specs == nil {
		o.specs = specgen.New(specgen.WithLogger(o.logger.Named("specgen")))
	}
	if o.planner == nil {
		o.planner = codeplan.New(codeplan.WithLogger(o.logger.Named("codeplan")))
	}
	if o.translator == nil {
		o.translator = translate.New(
			translate.WithConfirmation(o.cfg.Orchestrator.ExecutionConfirmation),
			translate.WithLogger(o.logger.Named("translate")))
	}
	if o.feedback == nil {
		o.feedback = feedback.New(
			feedback.WithVerbosity(models.Verbosity(o.cfg.Orchestrator.Verbosity)),
			feedback.WithLogger(o.logger.Named("feedback")))
	}

	return &Orchestrator{
		classifier:   o.classifier,
		decomposer:   o.decomposer,
		conversation: o.conversation,
		requirements: o.requirements,
		specs:        o.specs,
		planner:      o.planner,
		translator:   o.translator,
		feedback:     o.feedback,
		logger:       o.logger,
		metrics:      o.metrics,
		events:       o.events,
		recorder:     o.recorder,
		now:          time.Now,
		results:      make(map[string]*models.PipelineResult),
	}
}

// Process runs one turn to completion. It never panics and never leaves the
// conversation in processing: failures are reported through the result.
func (o *Orchestrator) Process(text string) *models.PipelineResult {
	start := o.now()
	res := &models.PipelineResult{
		ID:        uuid.NewString(),
		InputText: text,
		CreatedAt: start,
	}
	o.interactions++
	o.emit(EventTurnStarted, res, "", start, nil)

	if err := o.conversation.Fire(conversation.EventInput); err != nil {
		o.logger.Warn("forcing processing state", zap.Error(err))
		o.conversation.SetState(models.StateProcessing)
	}
	// The user turn is recorded before classification, so it carries no
	// intent. Recording first lets the turn bind its own referents.
	o.conversation.AddUserTurn(text, nil)
	resolved := o.conversation.ResolveReference(text)

	if err := o.run(res, resolved, start); err != nil {
		o.fail(res, err)
		o.emit(EventTurnFailed, res, "", start, err)
	} else if o.conversation.State() != models.StateClarifying {
		o.emit(EventTurnCompleted, res, "", start, nil)
	}

	res.State = o.conversation.State()
	res.ProcessingTime = o.now().Sub(start)
	o.store(res)

	o.logger.Info("processed turn",
		zap.String("result_id", res.ID),
		zap.Bool("success", res.Success),
		zap.String("state", string(res.State)),
		zap.Duration("elapsed", res.ProcessingTime))
	return res
}

// run executes steps 2 to 6 of a turn. Panics are converted into errors.
func (o *Orchestrator) run(res *models.PipelineResult, text string, start time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panic", zap.Any("panic", r))
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	outcome := o.classifier.Classify(text)
	in := intent.IntentOf(outcome)
	res.Intent = in
	o.metrics.Category(string(in.Category))

	if nc, ok := outcome.(intent.NeedsClarification); ok {
		return o.clarify(res, nc, start)
	}

	if err := o.conversation.Fire(conversation.EventExecute); err != nil {
		return err
	}
	for _, step := range StepsFor(in.Category) {
		if step == models.StepFeedback {
			continue
		}
		ran, err := o.runStep(step, res, text, in)
		if err != nil {
			return fmt.Errorf("step %s: %w", step, err)
		}
		if !ran {
			o.emit(EventStepSkipped, res, step, start, nil)
			continue
		}
		res.StepsRun = append(res.StepsRun, step)
		o.metrics.Step(string(step))
		o.emit(EventStepCompleted, res, step, start, nil)
	}

	if err := o.conversation.Fire(conversation.EventReport); err != nil {
		return err
	}
	res.Feedback = o.finalFeedback(in)
	res.StepsRun = append(res.StepsRun, models.StepFeedback)
	o.metrics.Step(string(models.StepFeedback))
	o.conversation.AddSystemTurn(res.Feedback.Content)
	res.Success = true
	return o.conversation.Fire(conversation.EventDone)
}

func (o *Orchestrator) clarify(res *models.PipelineResult, nc intent.NeedsClarification, start time.Time) error {
	res.Feedback = o.feedback.RequestClarification(ClarificationQuestion, nc.Reasons)
	res.Success = true
	if err := o.conversation.Fire(conversation.EventAmbiguous); err != nil {
		return err
	}
	o.conversation.AddSystemTurn(res.Feedback.Content)
	o.metrics.Clarification()
	o.emit(EventClarification, res, "", start, nil)
	return nil
}

// runStep runs one collaborator step. It reports false when the step's
// input is missing and the step was skipped.
func (o *Orchestrator) runStep(step models.Step, res *models.PipelineResult, text string, in *models.Intent) (bool, error) {
	switch step {
	case models.StepDecompose:
		res.Decomposition = o.decomposer.Decompose(text, in)
	case models.StepRequirements:
		rs, err := o.requirements.Extract(text)
		if err != nil {
			return false, fmt.Errorf("extract requirements: %w", err)
		}
		res.Requirements = rs
	case models.StepSpec:
		if res.Requirements.Empty() {
			return false, nil
		}
		spec, err := o.specs.Generate(title(text), res.Requirements, text)
		if err != nil {
			return false, fmt.Errorf("generate spec: %w", err)
		}
		if d, ok := o.specs.(apiDesigner); ok && in.Category == models.CategoryCreate {
			if e, ok := in.Entity(models.EntityAPI); ok {
				resource := e.Value
				if strings.EqualFold(resource, in.Action) {
					resource = e.Name
				}
				d.DesignAPI(spec.ID, resource)
			}
		}
		res.Spec = spec
	case models.StepPlan:
		if res.Spec == nil {
			return false, nil
		}
		plan, err := o.planner.Plan(res.Spec.Title, res.Spec)
		if err != nil {
			return false, fmt.Errorf("plan code: %w", err)
		}
		res.CodePlan = plan
	case models.StepTranslate:
		cmd, err := o.translator.Translate(text, in)
		if err != nil {
			return false, fmt.Errorf("translate command: %w", err)
		}
		res.Commands = append(res.Commands, cmd)
	default:
		return false, fmt.Errorf("unknown step %q", step)
	}
	return true, nil
}

func (o *Orchestrator) finalFeedback(in *models.Intent) *models.FeedbackMessage {
	switch in.Category {
	case models.CategoryExplain:
		return o.feedback.Suggest("Konuyu bir ornekle daha ayrintili sorabilirsiniz", "category: explain")
	case models.CategoryUnknown:
		return o.feedback.Suggest("Istegi bir eylem fiiliyle yeniden ifade edin", "category: unknown")
	}
	entity := string(in.Category)
	if len(in.Entities) > 0 {
		entity = in.Entities[0].Name
	}
	return o.feedback.ConfirmSuccess(in.Action, entity, "category: "+string(in.Category))
}

func (o *Orchestrator) fail(res *models.PipelineResult, err error) {
	o.errCount++
	o.metrics.Error()
	res.Success = false
	res.Error = err.Error()
	res.Feedback = o.feedback.ExplainError(ErrorKind(err), err.Error())
	o.conversation.AddSystemTurn(res.Feedback.Content)
	if ferr := o.conversation.Fire(conversation.EventFail); ferr != nil {
		o.conversation.SetState(models.StateIdle)
	}
	o.logger.Warn("turn failed", zap.String("result_id", res.ID), zap.Error(err))
}

func (o *Orchestrator) store(res *models.PipelineResult) {
	o.results[res.ID] = res
	o.order = append(o.order, res.ID)
	o.metrics.Interaction(res.ProcessingTime)
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(o.conversation.Context().ConversationID, res); err != nil {
		o.logger.Warn("record turn", zap.String("result_id", res.ID), zap.Error(err))
	}
}

func (o *Orchestrator) emit(typ EventType, res *models.PipelineResult, step models.Step, start time.Time, err error) {
	if o.events == nil {
		return
	}
	now := o.now()
	o.events.Emit(Event{
		Type:      typ,
		ResultID:  res.ID,
		Step:      step,
		Error:     err,
		Timestamp: now,
		Duration:  now.Sub(start),
	})
}

// RecoverFromError stores the failed input and error of a previous result
// in the classifier scratchpad, then processes the correction as a new turn.
func (o *Orchestrator) RecoverFromError(resultID, correction string) *models.PipelineResult {
	if prev, ok := o.results[resultID]; ok {
		o.classifier.AddContext(PreviousErrorKey, map[string]string{
			"text":  prev.InputText,
			"error": prev.Error,
		})
	}
	return o.Process(correction)
}

// Result returns a previous result.
func (o *Orchestrator) Result(id string) (*models.PipelineResult, bool) {
	res, ok := o.results[id]
	return res, ok
}

// History returns every result in processing order.
func (o *Orchestrator) History() []*models.PipelineResult {
	out := make([]*models.PipelineResult, len(o.order))
	for i, id := range o.order {
		out[i] = o.results[id]
	}
	return out
}

// AdaptStyle applies user preferences. The only key understood is
// "verbosity"; it reports whether the verbosity changed.
func (o *Orchestrator) AdaptStyle(prefs map[string]string) bool {
	v, ok := prefs["verbosity"]
	if !ok {
		return false
	}
	vs, ok := o.feedback.(verbositySetter)
	if !ok {
		return false
	}
	return vs.SetVerbosity(models.Verbosity(v))
}

// InteractionCount returns the number of processed turns.
func (o *Orchestrator) InteractionCount() int {
	return o.interactions
}

// ErrorCount returns the number of failed turns.
func (o *Orchestrator) ErrorCount() int {
	return o.errCount
}

// SuccessRate returns the share of turns without error, or 1 before any turn.
func (o *Orchestrator) SuccessRate() float64 {
	if o.interactions == 0 {
		return 1.0
	}
	return float64(o.interactions-o.errCount) / float64(o.interactions)
}

// Conversation returns the conversation manager.
func (o *Orchestrator) Conversation() *conversation.Manager {
	return o.conversation
}

// Classifier returns the intent classifier.
func (o *Orchestrator) Classifier() *intent.Classifier {
	return o.classifier
}

// Decomposer returns the task decomposer.
func (o *Orchestrator) Decomposer() *decompose.Decomposer {
	return o.decomposer
}

// ErrorKind maps an error to a feedback error kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return feedback.KindNotFound
	case errors.Is(err, os.ErrPermission):
		return feedback.KindPermission
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return feedback.KindTimeout
	case errors.Is(err, requirements.ErrEmptyInput), errors.Is(err, translate.ErrEmptyText),
		errors.Is(err, specgen.ErrEmptyTitle), errors.Is(err, codeplan.ErrNoSpec):
		return feedback.KindValidation
	default:
		return feedback.KindGeneric
	}
}

func title(text string) string {
	words := strings.Fields(text)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ")
}
