package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/petems/recordnote/internal/minutes"
)

func newParseCmd() *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "parse <minutes.md>",
		Short: "Check a minutes file and print its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := minutes.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			stats := doc.Stats()
			fmt.Fprintf(out, "Title:      %s\n", doc.Title())
			fmt.Fprintf(out, "Date:       %s (%s)\n", doc.Date().Format("2006-01-02 15:04:05"), humanize.Time(doc.Date()))
			fmt.Fprintf(out, "Language:   %s\n", doc.Language())
			fmt.Fprintf(out, "Duration:   %s\n", minutes.FormatTimestamp(stats.TotalDuration))
			fmt.Fprintf(out, "Segments:   %s\n", humanize.Comma(int64(stats.SegmentCount)))
			fmt.Fprintf(out, "Words:      %s\n", humanize.Comma(int64(stats.WordCount)))
			fmt.Fprintf(out, "Characters: %s\n", humanize.Comma(int64(stats.CharacterCount)))

			if showText {
				fmt.Fprintln(out)
				fmt.Fprintln(out, minutes.CleanText(doc.Text()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "also print the cleaned-up transcript")
	return cmd
}
