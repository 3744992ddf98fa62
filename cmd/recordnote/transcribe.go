package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/export"
	"github.com/petems/recordnote/internal/minutes"
)

func newTranscribeCmd(configPath *string) *cobra.Command {
	var (
		title string
		save  bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Create minutes from an existing WAV recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			buf, err := audio.ReadWAV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			date := time.Now()
			if info, err := f.Stat(); err == nil {
				date = info.ModTime()
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			transcriber, err := newTranscriber(cfg, log)
			if err != nil {
				return err
			}
			defer transcriber.Close()

			segments, err := transcriber.Transcribe(cmd.Context(), buf, cfg.Transcription.Language)
			if err != nil {
				return errors.New(apperr.UserMessage(err))
			}

			doc, err := minutes.Assemble(minutes.Metadata{
				Title:    title,
				Date:     date,
				Duration: buf.Duration(),
				Language: cfg.Transcription.Language,
			}, segments)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !save {
				_, err := out.Write(minutes.Serialize(doc))
				return err
			}
			path, err := export.New(cfg.Output, log).SaveMinutes(doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Minutes written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "meeting title (default is the file name)")
	cmd.Flags().BoolVar(&save, "save", false, "write to the output directory instead of stdout")
	return cmd
}
