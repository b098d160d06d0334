package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/parley/pkg/models"
)

// ResultCard renders one pipeline result as a chat entry.
type ResultCard struct {
	width int

	borderStyle   lipgloss.Style
	labelStyle    lipgloss.Style
	valueStyle    lipgloss.Style
	errorStyle    lipgloss.Style
	successStyle  lipgloss.Style
	questionStyle lipgloss.Style
	progressStyle lipgloss.Style
	suggestStyle  lipgloss.Style
	cautionStyle  lipgloss.Style
}

// NewResultCard creates a new ResultCard instance.
func NewResultCard() *ResultCard {
	return &ResultCard{
		width: 80,

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green

		questionStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange

		progressStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")), // Blue

		suggestStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")), // Yellow

		cautionStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
	}
}

// SetWidth updates the card width.
func (c *ResultCard) SetWidth(width int) {
	c.width = width
}

// feedbackStyle picks the style for a feedback type.
func (c *ResultCard) feedbackStyle(t models.FeedbackType) lipgloss.Style {
	switch t {
	case models.FeedbackErrorExplanation:
		return c.errorStyle
	case models.FeedbackSuccessConfirmation:
		return c.successStyle
	case models.FeedbackClarificationRequest:
		return c.questionStyle
	case models.FeedbackProgressReport:
		return c.progressStyle
	case models.FeedbackSuggestion:
		return c.suggestStyle
	default:
		return c.valueStyle
	}
}

// View renders the result. Commands and steps are listed below the
// feedback when present.
func (c *ResultCard) View(res *models.PipelineResult) string {
	if res == nil {
		return c.borderStyle.Width(c.width - 4).Render(c.labelStyle.Render("No result"))
	}

	var lines []string
	if res.Feedback != nil {
		lines = append(lines, c.feedbackStyle(res.Feedback.Type).Render(res.Feedback.Content))
		if res.Feedback.TechnicalDetail != "" {
			lines = append(lines, c.labelStyle.Render(res.Feedback.TechnicalDetail))
		}
		for _, s := range res.Feedback.Suggestions {
			lines = append(lines, c.labelStyle.Render("  - ")+c.valueStyle.Render(s))
		}
	} else if res.Error != "" {
		lines = append(lines, c.errorStyle.Render(res.Error))
	}

	for _, cmd := range res.Commands {
		line := c.labelStyle.Render(fmt.Sprintf("%s: ", cmd.Type)) + c.valueStyle.Render(cmd.Command)
		if cmd.SafetyLevel != models.SafetySafe && cmd.SafetyLevel != "" {
			line += " " + c.cautionStyle.Render(fmt.Sprintf("[%s]", cmd.SafetyLevel))
		}
		lines = append(lines, line)
	}

	if res.Intent != nil {
		meta := fmt.Sprintf("%s %.2f", res.Intent.Category, res.Intent.Confidence)
		if len(res.StepsRun) > 0 {
			steps := make([]string, len(res.StepsRun))
			for i, s := range res.StepsRun {
				steps[i] = string(s)
			}
			meta += " | " + strings.Join(steps, " > ")
		}
		lines = append(lines, c.labelStyle.Render(meta))
	}

	return c.borderStyle.Width(c.width - 4).Render(strings.Join(lines, "\n"))
}
