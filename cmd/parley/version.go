package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/parley/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "parley version %s\n", version.Full())
	},
}
