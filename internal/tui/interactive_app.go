package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/parley/internal/orchestrator"
	"github.com/ShayCichocki/parley/pkg/models"
)

// Processor runs one utterance through the pipeline.
// *orchestrator.Orchestrator satisfies it.
type Processor interface {
	Process(text string) *models.PipelineResult
	AdaptStyle(prefs map[string]string) bool
}

// ResultMsg carries a finished pipeline result back to the chat.
type ResultMsg struct {
	Result *models.PipelineResult
}

// EventMsg wraps an orchestrator event for the status line.
type EventMsg struct {
	Event orchestrator.Event
}

// chatEntry is one exchange in the transcript. A note replaces the result
// for local commands.
type chatEntry struct {
	user   string
	result *models.PipelineResult
	note   string
}

// ChatApp is the model for the interactive chat.
// It shows the transcript in a scrollable viewport above an input field.
type ChatApp struct {
	processor  Processor
	inputField *InputField
	card       *ResultCard
	viewport   viewport.Model
	spinner    spinner.Model

	entries []chatEntry
	busy    bool
	status  string

	width    int
	height   int
	quitting bool

	titleStyle lipgloss.Style
	userStyle  lipgloss.Style
	noteStyle  lipgloss.Style
}

// NewChatApp creates a new ChatApp that sends input to p.
func NewChatApp(p Processor) *ChatApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &ChatApp{
		processor:  p,
		inputField: NewInputField(),
		card:       NewResultCard(),
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		width:      80,
		height:     24,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		userStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),
		noteStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
	}
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return a.inputField.Focus()
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			a.quitting = true
			return a, tea.Quit

		case "pgup", "pgdown", "ctrl+u":
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd

		default:
			// Keys are dropped while a turn is being processed
			if a.busy {
				return a, nil
			}
			var cmd tea.Cmd
			a.inputField, cmd = a.inputField.Update(msg)
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case InputSubmittedMsg:
		return a, a.submit(msg.Text)

	case ResultMsg:
		a.busy = false
		for i := len(a.entries) - 1; i >= 0; i-- {
			if a.entries[i].result == nil && a.entries[i].note == "" {
				a.entries[i].result = msg.Result
				break
			}
		}
		a.refresh()
		return a, nil

	case EventMsg:
		a.status = describeEvent(msg.Event)
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// submit handles a submitted line: local slash commands are answered
// directly, everything else is processed in the background.
func (a *ChatApp) submit(text string) tea.Cmd {
	if a.busy {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return a.command(text)
	}

	a.entries = append(a.entries, chatEntry{user: text})
	a.busy = true
	a.status = ""
	a.refresh()

	p := a.processor
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		return ResultMsg{Result: p.Process(text)}
	})
}

func (a *ChatApp) command(text string) tea.Cmd {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		a.quitting = true
		return tea.Quit
	case "/clear":
		a.entries = nil
	case "/verbosity":
		if len(fields) < 2 {
			a.note(text, "Kullanim: /verbosity minimal|normal|detailed|debug")
			break
		}
		if a.processor.AdaptStyle(map[string]string{"verbosity": fields[1]}) {
			a.note(text, "Ayrinti duzeyi: "+fields[1])
		} else {
			a.note(text, "Bilinmeyen ayrinti duzeyi: "+fields[1])
		}
	default:
		a.note(text, "Komutlar: /verbosity <duzey>, /clear, /quit")
	}
	a.refresh()
	return nil
}

func (a *ChatApp) note(user, text string) {
	a.entries = append(a.entries, chatEntry{user: user, note: text})
}

// updateSizes updates the sizes of child components based on terminal size.
func (a *ChatApp) updateSizes() {
	// Title line plus a bordered input (3 lines)
	vpHeight := max(a.height-4, 1)
	a.viewport.Width = a.width
	a.viewport.Height = vpHeight
	a.inputField.SetWidth(a.width)
	a.card.SetWidth(a.width)
	a.refresh()
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (a *ChatApp) refresh() {
	a.viewport.SetContent(a.transcript())
	a.viewport.GotoBottom()
}

func (a *ChatApp) transcript() string {
	var b strings.Builder
	for _, e := range a.entries {
		b.WriteString(a.userStyle.Render("> " + e.user))
		b.WriteString("\n")
		switch {
		case e.note != "":
			b.WriteString(a.noteStyle.Render(e.note))
			b.WriteString("\n")
		case e.result != nil:
			b.WriteString(a.card.View(e.result))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Gorusuruz!\n"
	}

	header := a.titleStyle.Render("parley")
	switch {
	case a.busy:
		header += " " + a.spinner.View() + " " + a.noteStyle.Render(a.statusOr("Isleniyor"))
	case a.status != "":
		header += " " + a.noteStyle.Render(a.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, a.viewport.View(), a.inputField.View())
}

func (a *ChatApp) statusOr(fallback string) string {
	if a.status == "" {
		return fallback
	}
	return a.status
}

// describeEvent turns an orchestrator event into a status line.
func describeEvent(ev orchestrator.Event) string {
	switch ev.Type {
	case orchestrator.EventTurnStarted:
		return "Isleniyor"
	case orchestrator.EventStepCompleted:
		return fmt.Sprintf("%s tamamlandi (%s)", ev.Step, ev.Duration.Round(time.Millisecond))
	case orchestrator.EventStepSkipped:
		return fmt.Sprintf("%s atlandi", ev.Step)
	case orchestrator.EventClarification:
		return "Aciklama bekleniyor"
	case orchestrator.EventTurnCompleted:
		return fmt.Sprintf("Tamamlandi (%s)", ev.Duration.Round(time.Millisecond))
	case orchestrator.EventTurnFailed:
		if ev.Error != nil {
			return "Hata: " + ev.Error.Error()
		}
		return "Hata"
	default:
		return string(ev.Type)
	}
}

// NewChatProgram creates a new Bubbletea program for the chat.
func NewChatProgram(p Processor) (*tea.Program, *ChatApp) {
	app := NewChatApp(p)
	program := tea.NewProgram(app, tea.WithAltScreen())
	return program, app
}

// ForwardEvents sends orchestrator events to the program until ctx is
// done or the channel is closed.
func ForwardEvents(ctx context.Context, program *tea.Program, events <-chan orchestrator.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			program.Send(EventMsg{Event: ev})
		}
	}
}
