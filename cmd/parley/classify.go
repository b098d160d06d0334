package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/intent"
)

var classifyFormat string

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify the intent of an utterance",
	Long: `Classify one utterance and print its category, action, entities,
confidence and any ambiguities that would trigger a clarification.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(classifyFormat); err != nil {
			return err
		}

		rt, err := newRuntime(cfg, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		c := intent.New(
			intent.WithConfig(cfg.Classifier),
			intent.WithLexicon(rt.lexicon),
			intent.WithLogger(rt.logger.Named("intent")))
		in := c.Parse(strings.Join(args, " "))

		out := cmd.OutOrStdout()
		if classifyFormat != formatText {
			return encode(out, classifyFormat, in)
		}

		bold := color.New(color.Bold)
		fmt.Fprintf(out, "%s %s\n", bold.Sprint("category:"), in.Category)
		if in.Action != "" {
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("action:"), in.Action)
		}
		fmt.Fprintf(out, "%s %.2f (%s)\n", bold.Sprint("confidence:"), in.Confidence, in.ConfidenceLevel)
		for _, e := range in.Entities {
			fmt.Fprintf(out, "%s %s=%s (%s, %.1f)\n", bold.Sprint("entity:"), e.Name, e.Value, e.Type, e.Confidence)
		}
		if len(in.ContextReferences) > 0 {
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("references:"), strings.Join(in.ContextReferences, ", "))
		}
		if in.Resolved {
			printStatus(out, "✓", "resolved", color.FgGreen)
		} else {
			for _, a := range in.Ambiguities {
				printStatus(out, "?", a, color.FgYellow)
			}
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", formatText, "Output format: text, json or yaml")
}
