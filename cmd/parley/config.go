package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify parley configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/parley/config.yaml
Project-specific overrides can be placed in .parley.yaml
Environment variables override both (e.g. PARLEY_LOGGING_LEVEL=debug).`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return displayAllConfig(out, cfg)
		case 1:
			return displayConfigKey(out, cfg, args[0])
		default:
			return setConfigKey(out, cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(out io.Writer, c *config.Config) error {
	for _, key := range config.Keys() {
		value, err := config.Get(c, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %v\n", key, value)
	}
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(out, "\n# project config: %s\n", p)
	}
	fmt.Fprintf(out, "# user config: %s\n", config.GetUserConfigPath())
	return nil
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(out io.Writer, c *config.Config, key string) error {
	value, err := config.Get(c, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// setConfigKey sets a configuration value and saves the user config.
func setConfigKey(out io.Writer, c *config.Config, key, value string) error {
	updated, err := config.Set(c, key, value)
	if err != nil {
		return err
	}
	if err := config.Save(updated); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(out, "Set %s = %s\n", key, value)
	return nil
}
