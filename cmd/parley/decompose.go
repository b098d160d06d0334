package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/decompose"
	"github.com/ShayCichocki/parley/internal/intent"
)

var decomposeFormat string

var decomposeCmd = &cobra.Command{
	Use:   "decompose <text>",
	Short: "Split an instruction into ordered subtasks",
	Long: `Decompose one instruction into subtasks and print them in execution
waves. Subtasks in the same wave have no ordering among themselves.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(decomposeFormat); err != nil {
			return err
		}

		rt, err := newRuntime(cfg, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		text := strings.Join(args, " ")
		in := intent.New(
			intent.WithConfig(cfg.Classifier),
			intent.WithLexicon(rt.lexicon),
			intent.WithLogger(rt.logger.Named("intent"))).Parse(text)
		d := decompose.New(
			decompose.WithMaxSubtasks(cfg.Decomposer.MaxSubtasks),
			decompose.WithLexicon(rt.lexicon),
			decompose.WithLogger(rt.logger.Named("decompose")))
		dec := d.Decompose(text, in)

		out := cmd.OutOrStdout()
		if decomposeFormat != formatText {
			return encode(out, decomposeFormat, dec)
		}

		waves, err := decompose.ExecutionOrder(dec)
		if err != nil {
			return fmt.Errorf("order subtasks: %w", err)
		}
		summary, err := decompose.Summarize(dec)
		if err != nil {
			return fmt.Errorf("summarize decomposition: %w", err)
		}

		bold := color.New(color.Bold)
		fmt.Fprintf(out, "%s %d subtasks, complexity %d, depth %d, max parallel %d\n",
			bold.Sprint("decomposition:"), summary.Subtasks, summary.TotalComplexity, summary.Depth, summary.MaxParallel)
		for i, wave := range waves {
			fmt.Fprintf(out, "%s\n", color.CyanString("wave %d", i+1))
			for _, st := range wave {
				fmt.Fprintf(out, "  - %s %s\n", st.Description,
					color.HiBlackString("(%s, complexity %d)", st.Relation, st.EstimatedComplexity))
				for _, rule := range st.ValidationRules {
					fmt.Fprintf(out, "      %s %s\n", color.HiBlackString("check:"), rule)
				}
			}
		}
		return nil
	},
}

func init() {
	decomposeCmd.Flags().StringVarP(&decomposeFormat, "format", "f", formatText, "Output format: text, json or yaml")
}
