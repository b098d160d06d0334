package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/state"
	"github.com/ShayCichocki/parley/pkg/models"
)

var (
	historyLimit  int
	historyFormat string
	historyPurge  time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Show recorded conversations",
	Long: `Show results recorded in the transcript database.

Without arguments, lists recent conversations. With a conversation ID,
lists the results of that conversation in turn order. Results are only
recorded when state.record is enabled or --record is passed.

Use --purge to delete conversations inactive for longer than a duration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(historyFormat); err != nil {
			return err
		}

		path := cfg.State.DBPath
		if path == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			path = state.ProjectDBPath(cwd)
		}

		out := cmd.OutOrStdout()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Fprintln(out, "No recorded conversations. Run with --record to start recording.")
			return nil
		}

		db, err := state.Open(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		if historyPurge > 0 {
			n, err := db.PurgeOlderThan(historyPurge)
			if err != nil {
				return err
			}
			printStatus(out, "✓", fmt.Sprintf("Purged %d conversations", n), color.FgGreen)
			return nil
		}

		if len(args) == 1 {
			return showConversation(out, db, args[0])
		}
		return listConversations(out, db)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", formatText, "Output format: text, json or yaml")
	historyCmd.Flags().DurationVar(&historyPurge, "purge", 0, "Delete conversations inactive for longer than this (e.g. 720h)")
}

func listConversations(out io.Writer, store state.TranscriptStore) error {
	convs, err := store.ListConversations(historyLimit)
	if err != nil {
		return err
	}
	if historyFormat != formatText {
		return encode(out, historyFormat, convs)
	}
	if len(convs) == 0 {
		fmt.Fprintln(out, "No recorded conversations.")
		return nil
	}
	for _, c := range convs {
		fmt.Fprintf(out, "%s  %d turns  last active %s\n",
			color.New(color.Bold).Sprint(c.ID), c.Turns, c.LastActivity.Local().Format(time.DateTime))
	}
	return nil
}

func showConversation(out io.Writer, store state.TranscriptStore, id string) error {
	records, err := store.ListResults(id, historyLimit)
	if err != nil {
		return err
	}
	if historyFormat != formatText {
		return encode(out, historyFormat, records)
	}
	if len(records) == 0 {
		return fmt.Errorf("no results for conversation %s", id)
	}
	for _, r := range records {
		symbol, attr := "✓", color.FgGreen
		switch {
		case !r.Success:
			symbol, attr = "✗", color.FgRed
		case r.State == models.StateClarifying:
			symbol, attr = "?", color.FgYellow
		}
		line := fmt.Sprintf("#%d %s %s", r.Seq, r.InputText, color.HiBlackString("[%s, %s]", r.Category, r.ProcessingTime))
		printStatus(out, symbol, line, attr)
		if r.Feedback != "" {
			fmt.Fprintf(out, "    %s\n", r.Feedback)
		}
		if r.Error != "" {
			fmt.Fprintf(out, "    %s\n", color.RedString(r.Error))
		}
	}
	return nil
}
