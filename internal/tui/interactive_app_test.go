package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/parley/internal/orchestrator"
	"github.com/ShayCichocki/parley/pkg/models"
)

type fakeProcessor struct {
	inputs []string
	prefs  []map[string]string
}

func (p *fakeProcessor) Process(text string) *models.PipelineResult {
	p.inputs = append(p.inputs, text)
	return &models.PipelineResult{
		ID:        "res-1",
		InputText: text,
		Success:   true,
		Feedback: &models.FeedbackMessage{
			Type:    models.FeedbackSuccessConfirmation,
			Content: "Islem tamamlandi.",
		},
	}
}

func (p *fakeProcessor) AdaptStyle(prefs map[string]string) bool {
	p.prefs = append(p.prefs, prefs)
	return prefs["verbosity"] == "detailed"
}

// collectMsgs runs a command and flattens any batch it returns.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, collectMsgs(c)...)
	}
	return msgs
}

func findResult(msgs []tea.Msg) (ResultMsg, bool) {
	for _, m := range msgs {
		if r, ok := m.(ResultMsg); ok {
			return r, true
		}
	}
	return ResultMsg{}, false
}

func TestNewChatApp(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})

	if app == nil {
		t.Fatal("NewChatApp returned nil")
	}
	if app.inputField == nil {
		t.Error("inputField should not be nil")
	}
	if app.card == nil {
		t.Error("card should not be nil")
	}
}

func TestChatApp_Init(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})

	// Init should return a command to focus the input
	if app.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestChatApp_Update_CtrlC(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	updatedApp := model.(*ChatApp)
	if !updatedApp.quitting {
		t.Error("quitting should be true after Ctrl+C")
	}
	if cmd == nil {
		t.Error("Expected quit command")
	}
	if updatedApp.View() != "Gorusuruz!\n" {
		t.Errorf("View after quit = %q", updatedApp.View())
	}
}

func TestChatApp_Update_WindowSize(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})

	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	updatedApp := model.(*ChatApp)
	if updatedApp.width != 120 || updatedApp.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", updatedApp.width, updatedApp.height)
	}
	if updatedApp.viewport.Height != 36 {
		t.Errorf("viewport height = %d, want 36", updatedApp.viewport.Height)
	}
	if updatedApp.inputField.width != 120 {
		t.Errorf("input width = %d, want 120", updatedApp.inputField.width)
	}
}

func TestChatApp_SubmitProcessesInput(t *testing.T) {
	proc := &fakeProcessor{}
	app := NewChatApp(proc)

	_, cmd := app.Update(InputSubmittedMsg{Text: "tum gorevleri listele"})
	if !app.busy {
		t.Error("app should be busy after submit")
	}

	res, ok := findResult(collectMsgs(cmd))
	if !ok {
		t.Fatal("expected ResultMsg from submit command")
	}
	if len(proc.inputs) != 1 || proc.inputs[0] != "tum gorevleri listele" {
		t.Errorf("processor inputs = %v", proc.inputs)
	}

	app.Update(res)
	if app.busy {
		t.Error("app should not be busy after result")
	}
	if len(app.entries) != 1 || app.entries[0].result == nil {
		t.Fatalf("entries = %+v, want one entry with result", app.entries)
	}
	if !strings.Contains(app.transcript(), "Islem tamamlandi.") {
		t.Errorf("transcript missing feedback:\n%s", app.transcript())
	}
}

func TestChatApp_SubmitWhileBusy(t *testing.T) {
	proc := &fakeProcessor{}
	app := NewChatApp(proc)

	app.Update(InputSubmittedMsg{Text: "ilk"})
	_, cmd := app.Update(InputSubmittedMsg{Text: "ikinci"})

	if cmd != nil {
		t.Error("submit while busy should return no command")
	}
	if len(app.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(app.entries))
	}

	// Keys are dropped while busy
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if app.inputField.Value() != "" {
		t.Errorf("input = %q, want empty while busy", app.inputField.Value())
	}
}

func TestChatApp_VerbosityCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
		calls int
	}{
		{"/verbosity detailed", "Ayrinti duzeyi: detailed", 1},
		{"/verbosity loud", "Bilinmeyen ayrinti duzeyi: loud", 1},
		{"/verbosity", "Kullanim", 0},
		{"/help", "Komutlar", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			proc := &fakeProcessor{}
			app := NewChatApp(proc)

			_, cmd := app.Update(InputSubmittedMsg{Text: tt.input})
			if cmd != nil {
				t.Error("local command should not return a command")
			}
			if app.busy {
				t.Error("local command should not mark the app busy")
			}
			if len(proc.prefs) != tt.calls {
				t.Errorf("AdaptStyle calls = %d, want %d", len(proc.prefs), tt.calls)
			}
			if len(app.entries) != 1 || !strings.Contains(app.entries[0].note, tt.want) {
				t.Errorf("entries = %+v, want note containing %q", app.entries, tt.want)
			}
			if len(proc.inputs) != 0 {
				t.Error("local command should not reach the processor")
			}
		})
	}
}

func TestChatApp_ClearAndQuit(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})
	app.Update(InputSubmittedMsg{Text: "/help"})

	app.Update(InputSubmittedMsg{Text: "/clear"})
	if len(app.entries) != 0 {
		t.Errorf("entries after /clear = %d, want 0", len(app.entries))
	}

	_, cmd := app.Update(InputSubmittedMsg{Text: "/quit"})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg from /quit")
	}
}

func TestChatApp_EventUpdatesStatus(t *testing.T) {
	app := NewChatApp(&fakeProcessor{})

	app.Update(EventMsg{Event: orchestrator.Event{
		Type:     orchestrator.EventStepCompleted,
		Step:     models.StepTranslate,
		Duration: 1500 * time.Microsecond,
	}})

	if app.status != "translate tamamlandi (2ms)" {
		t.Errorf("status = %q", app.status)
	}
	if !strings.Contains(app.View(), "translate tamamlandi") {
		t.Error("View should show the status line")
	}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		ev   orchestrator.Event
		want string
	}{
		{orchestrator.Event{Type: orchestrator.EventTurnStarted}, "Isleniyor"},
		{orchestrator.Event{Type: orchestrator.EventStepSkipped, Step: models.StepSpec}, "spec atlandi"},
		{orchestrator.Event{Type: orchestrator.EventClarification}, "Aciklama bekleniyor"},
		{orchestrator.Event{Type: orchestrator.EventTurnCompleted, Duration: time.Second}, "Tamamlandi (1s)"},
		{orchestrator.Event{Type: orchestrator.EventTurnFailed, Error: errors.New("boom")}, "Hata: boom"},
		{orchestrator.Event{Type: orchestrator.EventTurnFailed}, "Hata"},
	}

	for _, tt := range tests {
		if got := describeEvent(tt.ev); got != tt.want {
			t.Errorf("describeEvent(%s) = %q, want %q", tt.ev.Type, got, tt.want)
		}
	}
}

func TestResultCard_View(t *testing.T) {
	card := NewResultCard()
	res := &models.PipelineResult{
		Intent: &models.Intent{Category: models.CategoryDelete, Confidence: 0.86},
		Commands: []*models.TranslatedCommand{{
			Type:        models.CommandShell,
			Command:     "rm -rf /tmp/test",
			SafetyLevel: models.SafetyDangerous,
		}},
		Feedback: &models.FeedbackMessage{
			Type:        models.FeedbackSuccessConfirmation,
			Content:     "Dosya silindi.",
			Suggestions: []string{"Yedekleri kontrol edin"},
		},
		StepsRun: []models.Step{models.StepTranslate, models.StepFeedback},
	}

	view := card.View(res)
	for _, want := range []string{
		"Dosya silindi.",
		"Yedekleri kontrol edin",
		"rm -rf /tmp/test",
		"[dangerous]",
		"delete 0.86",
		"translate > feedback",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	if !strings.Contains(card.View(nil), "No result") {
		t.Error("nil result should render placeholder")
	}
}

func TestResultCard_ErrorWithoutFeedback(t *testing.T) {
	view := NewResultCard().View(&models.PipelineResult{Error: "step translate: boom"})
	if !strings.Contains(view, "step translate: boom") {
		t.Errorf("view missing error:\n%s", view)
	}
}
