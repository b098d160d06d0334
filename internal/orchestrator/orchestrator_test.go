package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ShayCichocki/parley/internal/feedback"
	"github.com/ShayCichocki/parley/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingTranslator struct {
	err   error
	calls int
	// failures is how many calls fail before it starts succeeding. Zero
	// means every call fails.
	failures int
}

func (f *failingTranslator) Translate(text string, _ *models.Intent) (*models.TranslatedCommand, error) {
	f.calls++
	if f.failures == 0 || f.calls <= f.failures {
		return nil, f.err
	}
	return &models.TranslatedCommand{ID: "cmd", OriginalText: text, Type: models.CommandSystem}, nil
}

type panickingTranslator struct{}

func (panickingTranslator) Translate(string, *models.Intent) (*models.TranslatedCommand, error) {
	panic("translator exploded")
}

type memoryRecorder struct {
	conversationIDs []string
	results         []*models.PipelineResult
}

func (r *memoryRecorder) Record(conversationID string, res *models.PipelineResult) error {
	r.conversationIDs = append(r.conversationIDs, conversationID)
	r.results = append(r.results, res)
	return nil
}

func TestProcess_CreateRunsFullPipeline(t *testing.T) {
	o := New()
	res := o.Process("api users olustur. Sistem login yapabilmeli.")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, models.StateIdle, res.State)
	assert.Equal(t, models.CategoryCreate, res.Intent.Category)
	assert.Equal(t, []models.Step{
		models.StepDecompose, models.StepRequirements, models.StepSpec,
		models.StepPlan, models.StepTranslate, models.StepFeedback,
	}, res.StepsRun)

	require.NotNil(t, res.Decomposition)
	require.NotNil(t, res.Requirements)
	assert.Len(t, res.Requirements.Requirements, 1)
	require.NotNil(t, res.Spec)
	assert.Len(t, res.Spec.APIEndpoints, 5)
	require.NotNil(t, res.CodePlan)
	assert.NotEmpty(t, res.CodePlan.Files)

	require.Len(t, res.Commands, 1)
	assert.Equal(t, models.CommandAPI, res.Commands[0].Type)
	assert.Equal(t, "POST /api/users", res.Commands[0].Command)

	require.NotNil(t, res.Feedback)
	assert.Equal(t, models.FeedbackSuccessConfirmation, res.Feedback.Type)
	assert.Equal(t, "api olusturuldu.", res.Feedback.Content)
}

func TestProcess_SpecSkippedWithoutRequirements(t *testing.T) {
	res := New().Process("Bir API olustur")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []models.Step{
		models.StepDecompose, models.StepRequirements, models.StepTranslate, models.StepFeedback,
	}, res.StepsRun)
	assert.NotNil(t, res.Requirements)
	assert.Nil(t, res.Spec)
	assert.Nil(t, res.CodePlan)
	assert.Equal(t, "API olusturuldu.", res.Feedback.Content)
}

func TestProcess_QueryOnlyTranslates(t *testing.T) {
	res := New().Process("tum gorevleri listele")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []models.Step{models.StepTranslate, models.StepFeedback}, res.StepsRun)
	assert.Nil(t, res.Decomposition)
	assert.Nil(t, res.Requirements)
	require.Len(t, res.Commands, 1)
	assert.Equal(t, models.CommandDB, res.Commands[0].Type)
	assert.Equal(t, "query icin listele islemi tamamlandi.", res.Feedback.Content)
}

func TestProcess_Clarification(t *testing.T) {
	o := New()
	res := o.Process("belirsiz")

	assert.True(t, res.Success)
	assert.Equal(t, models.StateClarifying, res.State)
	assert.True(t, res.NeedsClarification())
	assert.Nil(t, res.Decomposition)
	assert.Nil(t, res.Commands)
	assert.Empty(t, res.StepsRun)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, models.FeedbackClarificationRequest, res.Feedback.Type)
	assert.Contains(t, res.Feedback.Content, "Secenekler:")
	assert.NotEmpty(t, res.Feedback.Suggestions)

	next := o.Process("tum gorevleri listele")
	assert.True(t, next.Success)
	assert.Equal(t, models.StateIdle, next.State)
}

func TestProcess_MultiTurn(t *testing.T) {
	o := New()
	o.Process("Bir API olustur")
	o.Process("tum gorevleri listele")

	assert.GreaterOrEqual(t, o.Conversation().TurnCount(), 4)
	assert.Equal(t, 2, o.InteractionCount())
	assert.Equal(t, 0, o.ErrorCount())
	assert.Equal(t, 1.0, o.SuccessRate())
	assert.Len(t, o.History(), 2)
}

func TestProcess_ResolvesReferences(t *testing.T) {
	o := New()
	first := o.Process("SecurityAgent olustur")
	require.True(t, first.Success, first.Error)

	res := o.Process("o nedir")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "SecurityAgent nedir", res.Intent.RawInput)
	assert.Equal(t, models.CategoryExplain, res.Intent.Category)
	assert.Equal(t, []models.Step{models.StepFeedback}, res.StepsRun)
	assert.Equal(t, models.FeedbackSuggestion, res.Feedback.Type)
	assert.Equal(t, "o nedir", res.InputText)

	turns := o.Conversation().Context().Turns
	var userTurns []string
	for _, turn := range turns {
		if turn.Role == models.RoleUser {
			userTurns = append(userTurns, turn.Content)
		}
	}
	assert.Equal(t, []string{"SecurityAgent olustur", "o nedir"}, userTurns)
}

func TestProcess_ResolvesReferenceBoundInSameTurn(t *testing.T) {
	o := New()
	res := o.Process("Create Database and delete it")

	require.NotNil(t, res.Intent)
	assert.Equal(t, "Create Database and delete Database", res.Intent.RawInput)
	assert.Equal(t, "Create Database and delete it", res.InputText)

	turns := o.Conversation().Context().Turns
	require.NotEmpty(t, turns)
	assert.Equal(t, "Create Database and delete it", turns[0].Content)
}

func TestProcess_UserTurnsKeepNoIntent(t *testing.T) {
	o := New()
	o.Process("Bir API olustur")
	o.Process("tum gorevleri listele")

	for _, turn := range o.Conversation().Context().Turns {
		assert.Nil(t, turn.Intent, "turn %q", turn.Content)
	}
}

func TestProcess_CollaboratorError(t *testing.T) {
	tr := &failingTranslator{err: fmt.Errorf("open /etc/agents: %w", os.ErrPermission)}
	o := New(WithTranslator(tr))

	res := o.Process("tum gorevleri listele")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "translate")
	assert.Equal(t, models.StateIdle, res.State)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, models.FeedbackErrorExplanation, res.Feedback.Type)
	assert.Contains(t, res.Feedback.Content, "yetkiniz")
	assert.Equal(t, 1, o.ErrorCount())
	assert.Equal(t, 0.0, o.SuccessRate())

	ok := o.Process("SecurityAgent nedir")
	assert.True(t, ok.Success)
	assert.Equal(t, 0.5, o.SuccessRate())
}

func TestProcess_RecoversPanics(t *testing.T) {
	o := New(WithTranslator(panickingTranslator{}))

	var res *models.PipelineResult
	require.NotPanics(t, func() {
		res = o.Process("tum gorevleri listele")
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "translator exploded")
	assert.Equal(t, models.StateIdle, res.State)
	assert.Equal(t, models.FeedbackErrorExplanation, res.Feedback.Type)
}

func TestRecoverFromError(t *testing.T) {
	tr := &failingTranslator{err: errors.New("backend down"), failures: 1}
	o := New(WithTranslator(tr))

	failed := o.Process("tum gorevleri listele")
	require.False(t, failed.Success)

	res := o.RecoverFromError(failed.ID, "tum gorevleri goster")
	assert.True(t, res.Success, res.Error)

	hint, ok := o.Classifier().GetContext(PreviousErrorKey, nil).(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "tum gorevleri listele", hint["text"])
	assert.Contains(t, hint["error"], "backend down")
}

func TestRecoverFromError_UnknownResult(t *testing.T) {
	o := New()
	res := o.RecoverFromError("missing", "tum gorevleri listele")
	assert.True(t, res.Success)
	assert.Nil(t, o.Classifier().GetContext(PreviousErrorKey, nil))
}

func TestResultLookup(t *testing.T) {
	o := New()
	res := o.Process("tum gorevleri listele")

	got, ok := o.Result(res.ID)
	require.True(t, ok)
	assert.Same(t, res, got)

	_, ok = o.Result("missing")
	assert.False(t, ok)
}

func TestAdaptStyle(t *testing.T) {
	r := feedback.New()
	o := New(WithFeedback(r))

	assert.True(t, o.AdaptStyle(map[string]string{"verbosity": "detailed"}))
	assert.Equal(t, models.VerbosityDetailed, r.Verbosity())

	assert.False(t, o.AdaptStyle(map[string]string{"verbosity": "loud"}))
	assert.Equal(t, models.VerbosityDetailed, r.Verbosity())

	assert.False(t, o.AdaptStyle(map[string]string{"tone": "casual"}))
}

func TestSuccessRate_NoInteractions(t *testing.T) {
	assert.Equal(t, 1.0, New().SuccessRate())
}

func TestEvents(t *testing.T) {
	events := NewEventEmitter(32, nil)
	o := New(WithEvents(events))
	o.Process("tum gorevleri listele")
	o.Process("belirsiz")

	var types []EventType
	for len(events.Events()) > 0 {
		types = append(types, (<-events.Events()).Type)
	}
	assert.Equal(t, []EventType{
		EventTurnStarted, EventStepCompleted, EventTurnCompleted,
		EventTurnStarted, EventClarification,
	}, types)
	assert.Zero(t, events.DroppedCount())
}

func TestEvents_SkippedStep(t *testing.T) {
	events := NewEventEmitter(32, nil)
	o := New(WithEvents(events))
	o.Process("Bir API olustur")

	var skipped []models.Step
	for len(events.Events()) > 0 {
		ev := <-events.Events()
		if ev.Type == EventStepSkipped {
			skipped = append(skipped, ev.Step)
		}
	}
	assert.Equal(t, []models.Step{models.StepSpec, models.StepPlan}, skipped)
}

func TestRecorder(t *testing.T) {
	rec := &memoryRecorder{}
	o := New(WithRecorder(rec))
	o.Process("tum gorevleri listele")
	o.Process("belirsiz")

	require.Len(t, rec.results, 2)
	assert.Equal(t, o.Conversation().Context().ConversationID, rec.conversationIDs[0])
	assert.Equal(t, models.StateClarifying, rec.results[1].State)
}

func TestStepTable(t *testing.T) {
	for _, c := range models.AllCategories {
		steps := StepsFor(c)
		require.NotEmpty(t, steps, c)
		assert.Equal(t, models.StepFeedback, steps[len(steps)-1], c)
		for _, s := range steps {
			assert.True(t, s.Valid(), "%s: %s", c, s)
		}
	}
	assert.Equal(t, []models.Step{models.StepFeedback}, StepsFor("nonsense"))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", os.ErrNotExist), feedback.KindNotFound},
		{fmt.Errorf("x: %w", os.ErrPermission), feedback.KindPermission},
		{os.ErrDeadlineExceeded, feedback.KindTimeout},
		{errors.New("boom"), feedback.KindGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), tt.err.Error())
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "a b c d e f", title("a b c d e f g h"))
	assert.Equal(t, "kisa", title("  kisa "))
	assert.Equal(t, "", title(strings.Repeat(" ", 3)))
}
