package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/audio/portaudio"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := portaudio.New(zerolog.Nop())
			if err != nil {
				return fmt.Errorf("failed to initialize audio: %w", err)
			}
			defer source.Close()

			devices, err := source.ListDevices()
			if err != nil {
				return err
			}
			return printDevices(cmd, devices)
		},
	}
}

func printDevices(cmd *cobra.Command, devices []audio.AudioDevice) error {
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No input devices found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEFAULT")
	for _, d := range devices {
		def := ""
		if d.Default {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, def)
	}
	return w.Flush()
}
