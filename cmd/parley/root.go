package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/config"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string
	recordFlag  bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Conversational intent pipeline",
	Long: `Parley turns free-form requests into classified intents, decomposed
subtasks, requirements, specs, code plans and translated commands.

With no arguments, launches an interactive chat where each line is one
turn of a conversation.

Core capabilities:
- Classifies intent with keyword tables and asks for clarification when unsure
- Splits compound requests into ordered, parallelisable subtasks
- Tracks topics and resolves references across turns
- Translates requests into agent, API, database and shell commands with safety ratings`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: user and project config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().BoolVar(&recordFlag, "record", false, "Record results in the transcript database")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if recordFlag {
		cfg.State.Record = true
	}
	return nil
}
