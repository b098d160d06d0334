package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InputSubmittedMsg is sent when the user submits a line.
type InputSubmittedMsg struct {
	Text string
}

// maxHistory bounds the number of submitted lines kept for recall.
const maxHistory = 100

// InputField is a text input component for entering utterances.
// Up and down recall previously submitted lines.
type InputField struct {
	input textinput.Model
	width int

	history []string
	// cursor indexes history while recalling; len(history) means the draft.
	cursor int
	draft  string
}

// NewInputField creates a new InputField.
func NewInputField() *InputField {
	ti := textinput.New()
	ti.Placeholder = "Bir istek yazin ve Enter'a basin..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // Account for prompt and padding
}

// Value returns the current text.
func (f *InputField) Value() string {
	return f.input.Value()
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(f.input.Value())
			if text != "" {
				f.remember(text)
				f.input.Reset()
				return f, func() tea.Msg {
					return InputSubmittedMsg{Text: text}
				}
			}
		case "up":
			f.recall(-1)
			return f, nil
		case "down":
			f.recall(1)
			return f, nil
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f *InputField) remember(text string) {
	if n := len(f.history); n == 0 || f.history[n-1] != text {
		f.history = append(f.history, text)
		if len(f.history) > maxHistory {
			f.history = f.history[len(f.history)-maxHistory:]
		}
	}
	f.cursor = len(f.history)
	f.draft = ""
}

// recall moves through the history by delta. Moving past the newest entry
// restores the text that was being typed.
func (f *InputField) recall(delta int) {
	next := f.cursor + delta
	if next < 0 || next > len(f.history) || next == f.cursor {
		return
	}
	if f.cursor == len(f.history) {
		f.draft = f.input.Value()
	}
	f.cursor = next
	if next == len(f.history) {
		f.input.SetValue(f.draft)
	} else {
		f.input.SetValue(f.history[next])
	}
	f.input.CursorEnd()
}

// View renders the input field.
func (f *InputField) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	prompt := promptStyle.Render("> ")
	return boxStyle.Render(prompt + f.input.View())
}

// Focus sets focus on the input field.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the input field.
func (f *InputField) Blur() {
	f.input.Blur()
}

// Focused reports whether the field has focus.
func (f *InputField) Focused() bool {
	return f.input.Focused()
}
