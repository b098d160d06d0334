package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/pkg/models"
)

var (
	runFormat    string
	runVerbosity string
)

var runCmd = &cobra.Command{
	Use:   "run [text...]",
	Short: "Process utterances as turns of one conversation",
	Long: `Run each argument through the pipeline as one turn of a single
conversation, so later turns can refer back to earlier ones.

With no arguments, each non-empty line of standard input is a turn.

Examples:
  parley run "api users olustur. Sistem login yapabilmeli."
  parley run "SecurityAgent olustur" "o nedir" --format yaml
  cat turns.txt | parley run --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(runFormat); err != nil {
			return err
		}

		turns := args
		if len(turns) == 0 {
			var err error
			turns, err = readLines(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}
		if len(turns) == 0 {
			return fmt.Errorf("nothing to process: pass text or pipe lines on stdin")
		}

		rt, err := newRuntime(cfg, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()
		rt.serveMetrics(metricsAddr)

		orch := rt.newOrchestrator()
		if runVerbosity != "" && !orch.AdaptStyle(map[string]string{"verbosity": runVerbosity}) {
			return fmt.Errorf("unknown verbosity %q", runVerbosity)
		}

		results := make([]*models.PipelineResult, 0, len(turns))
		for _, text := range turns {
			results = append(results, orch.Process(text))
		}

		out := cmd.OutOrStdout()
		if runFormat != formatText {
			return encode(out, runFormat, results)
		}
		for _, res := range results {
			fmt.Fprintf(out, "\n> %s\n", res.InputText)
			printResult(out, res)
		}
		fmt.Fprintf(out, "\n%d turns, success rate %.0f%%\n", orch.InteractionCount(), orch.SuccessRate()*100)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFormat, "format", "f", formatText, "Output format: text, json or yaml")
	runCmd.Flags().StringVar(&runVerbosity, "verbosity", "", "Feedback verbosity: minimal, normal, detailed or debug")
}

// readLines returns the trimmed, non-empty lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
