package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/parley/pkg/models"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", f)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("cannot encode as %q", format)
	}
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// feedbackColor picks the status color for a feedback type.
func feedbackColor(t models.FeedbackType) (string, color.Attribute) {
	switch t {
	case models.FeedbackErrorExplanation:
		return "✗", color.FgRed
	case models.FeedbackClarificationRequest:
		return "?", color.FgYellow
	case models.FeedbackSuggestion:
		return "→", color.FgCyan
	case models.FeedbackProgressReport:
		return "…", color.FgBlue
	default:
		return "✓", color.FgGreen
	}
}

// printResult renders a pipeline result as text.
func printResult(w io.Writer, res *models.PipelineResult) {
	if res.Intent != nil {
		fmt.Fprintf(w, "%s %s (%.2f, %s)\n",
			color.New(color.Bold).Sprint("intent:"),
			res.Intent.Category, res.Intent.Confidence, res.Intent.ConfidenceLevel)
	}

	if res.Decomposition != nil && len(res.Decomposition.Subtasks) > 1 {
		fmt.Fprintf(w, "%s %d subtasks\n", color.New(color.Bold).Sprint("decomposition:"), len(res.Decomposition.Subtasks))
		for _, st := range res.Decomposition.Subtasks {
			fmt.Fprintf(w, "  - %s\n", st.Description)
		}
	}
	if res.Requirements != nil && !res.Requirements.Empty() {
		fmt.Fprintf(w, "%s %d\n", color.New(color.Bold).Sprint("requirements:"), len(res.Requirements.Requirements))
	}
	if res.Spec != nil {
		fmt.Fprintf(w, "%s %s (%d endpoints)\n", color.New(color.Bold).Sprint("spec:"), res.Spec.Title, len(res.Spec.APIEndpoints))
	}
	if res.CodePlan != nil {
		fmt.Fprintf(w, "%s %d files\n", color.New(color.Bold).Sprint("plan:"), len(res.CodePlan.Files))
	}

	for _, cmd := range res.Commands {
		line := fmt.Sprintf("%s %s", color.New(color.Bold).Sprintf("%s:", cmd.Type), cmd.Command)
		switch cmd.SafetyLevel {
		case models.SafetyDangerous, models.SafetyBlocked:
			line += " " + color.RedString("[%s]", cmd.SafetyLevel)
		case models.SafetyCaution:
			line += " " + color.YellowString("[%s]", cmd.SafetyLevel)
		}
		fmt.Fprintln(w, line)
	}

	if res.Feedback != nil {
		symbol, attr := feedbackColor(res.Feedback.Type)
		printStatus(w, symbol, res.Feedback.Content, attr)
		if res.Feedback.TechnicalDetail != "" {
			fmt.Fprintf(w, "  %s\n", color.HiBlackString(res.Feedback.TechnicalDetail))
		}
		if res.Feedback.Type != models.FeedbackClarificationRequest && len(res.Feedback.Suggestions) > 0 {
			fmt.Fprintf(w, "  %s\n", strings.Join(res.Feedback.Suggestions, "; "))
		}
	} else if res.Error != "" {
		printStatus(w, "✗", res.Error, color.FgRed)
	}
}
