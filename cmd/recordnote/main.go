package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "recordnote",
		Short:         "Record meetings and turn them into Markdown minutes",
		Version:       Version + " (" + Commit + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the per-user config path)")

	root.AddCommand(
		newRecordCmd(&configPath),
		newTranscribeCmd(&configPath),
		newDevicesCmd(),
		newParseCmd(),
		newModelsCmd(&configPath),
	)
	return root
}
