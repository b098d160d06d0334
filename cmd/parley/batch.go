package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/parley/pkg/models"
)

var (
	batchFormat  string
	batchWorkers int
)

// batchFile is the input format of the batch command.
type batchFile struct {
	Conversations []batchConversation `yaml:"conversations"`
}

type batchConversation struct {
	ID    string   `yaml:"id"`
	Turns []string `yaml:"turns"`
}

// batchResult is one processed conversation.
type batchResult struct {
	ID             string                   `json:"id" yaml:"id"`
	ConversationID string                   `json:"conversation_id" yaml:"conversation_id"`
	SuccessRate    float64                  `json:"success_rate" yaml:"success_rate"`
	Results        []*models.PipelineResult `json:"results" yaml:"results"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process many conversations concurrently",
	Long: `Process a YAML file of conversations. Each conversation gets its own
orchestrator and conversations run concurrently on a bounded worker pool.

File format:
  conversations:
    - id: onboarding
      turns:
        - "SecurityAgent olustur"
        - "o nedir"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(batchFormat); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		convs, err := parseBatch(f)
		if err != nil {
			return err
		}

		workers := batchWorkers
		if workers <= 0 {
			workers = cfg.Batch.Workers
		}

		rt, err := newRuntime(cfg, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()
		rt.serveMetrics(metricsAddr)

		results, err := runBatch(cmd, rt, convs, workers)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if batchFormat != formatText {
			return encode(out, batchFormat, results)
		}
		printBatch(out, results)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", formatText, "Output format: text, json or yaml")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Concurrent conversations (default: batch.workers)")
}

// parseBatch decodes and checks a batch file.
func parseBatch(r io.Reader) ([]batchConversation, error) {
	var bf batchFile
	if err := yaml.NewDecoder(r).Decode(&bf); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(bf.Conversations) == 0 {
		return nil, fmt.Errorf("batch file has no conversations")
	}
	for i := range bf.Conversations {
		c := &bf.Conversations[i]
		if c.ID == "" {
			c.ID = fmt.Sprintf("conversation-%d", i+1)
		}
		if len(c.Turns) == 0 {
			return nil, fmt.Errorf("conversation %s has no turns", c.ID)
		}
	}
	return bf.Conversations, nil
}

// runBatch processes every conversation with at most workers running at
// once. Results keep the input order.
func runBatch(cmd *cobra.Command, rt *runtime, convs []batchConversation, workers int) ([]batchResult, error) {
	results := make([]batchResult, len(convs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(workers, 1))

	for i, conv := range convs {
		i, conv := i, conv
		g.Go(func() error {
			orch := rt.newOrchestrator()
			res := batchResult{
				ID:             conv.ID,
				ConversationID: orch.Conversation().Context().ConversationID,
			}
			for _, text := range conv.Turns {
				if err := ctx.Err(); err != nil {
					return err
				}
				res.Results = append(res.Results, orch.Process(text))
			}
			res.SuccessRate = orch.SuccessRate()
			results[i] = res

			rt.logger.Debug("batch conversation done",
				zap.String("id", conv.ID),
				zap.Int("turns", len(conv.Turns)),
				zap.Float64("success_rate", res.SuccessRate))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

func printBatch(w io.Writer, results []batchResult) {
	var turns, failed, clarifying int
	for _, br := range results {
		fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint(br.ID), color.HiBlackString("(%s)", br.ConversationID))
		for _, res := range br.Results {
			turns++
			switch {
			case !res.Success:
				failed++
				printStatus(w, "✗", res.InputText+": "+res.Error, color.FgRed)
			case res.NeedsClarification():
				clarifying++
				printStatus(w, "?", res.InputText, color.FgYellow)
			default:
				content := ""
				if res.Feedback != nil {
					content = " → " + res.Feedback.Content
				}
				printStatus(w, "✓", res.InputText+content, color.FgGreen)
			}
		}
	}
	fmt.Fprintf(w, "\n%d conversations, %d turns, %d failed, %d need clarification\n",
		len(results), turns, failed, clarifying)
}
