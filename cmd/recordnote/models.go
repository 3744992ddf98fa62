package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/petems/recordnote/internal/transcribe/whispercpp"
)

func newModelsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage whisper.cpp speech models",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known models and whether they are downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tSIZE\tCONFIGURED")
			for _, name := range whispercpp.Models() {
				size := "-"
				if info, err := os.Stat(whispercpp.ModelPath(name)); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				current := ""
				if name == cfg.Transcription.Model {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, size, current)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull [model]",
		Short: "Download a model (default is the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}
			model := cfg.Transcription.Model
			if len(args) == 1 {
				model = args[0]
			}

			path := whispercpp.ModelPath(model)
			if err := whispercpp.Download(cmd.Context(), model, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s saved to %s\n", model, path)
			return nil
		},
	})

	return cmd
}
