package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio/portaudio"
	"github.com/petems/recordnote/internal/export"
	"github.com/petems/recordnote/internal/minutes"
	"github.com/petems/recordnote/internal/permissions"
)

func newRecordCmd(configPath *string) *cobra.Command {
	var (
		title    string
		duration time.Duration
		device   string
		printDoc bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone until Ctrl+C and write the minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if device != "" {
				cfg.Audio.DeviceID = device
			}
			if err := permissions.EnsureMicrophone(); err != nil {
				return err
			}

			source, err := portaudio.New(log)
			if err != nil {
				return fmt.Errorf("failed to initialize audio: %w", err)
			}
			defer source.Close()

			transcriber, err := newTranscriber(cfg, log)
			if err != nil {
				return err
			}
			defer transcriber.Close()

			exporter := export.New(cfg.Output, log)
			appCfg := app.Config{
				Source:      source,
				Transcriber: transcriber,
				Config:      cfg,
				Logger:      log,
			}
			if cfg.Output.KeepAudio {
				appCfg.Archiver = exporter
			}
			controller := app.New(appCfg)
			defer controller.Shutdown(context.Background())

			out := cmd.OutOrStdout()
			doc, err := recordMeeting(cmd.Context(), controller, title, duration, out)
			if err != nil {
				return err
			}

			path, err := exporter.SaveMinutes(doc)
			if err != nil {
				return err
			}
			if printDoc {
				out.Write(minutes.Serialize(doc))
			}
			fmt.Fprintf(out, "Minutes written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "meeting title")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop automatically after this long")
	cmd.Flags().StringVar(&device, "device", "", "input device ID (see 'recordnote devices')")
	cmd.Flags().BoolVar(&printDoc, "print", false, "also print the minutes to stdout")
	return cmd
}

// recordMeeting runs one session on ctrl: record until Ctrl+C, d or a
// device failure, then transcribe. Errors come back as the message the
// user should see.
func recordMeeting(ctx context.Context, ctrl *app.Controller, title string, d time.Duration, out io.Writer) (*minutes.Document, error) {
	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	session, err := ctrl.Start(title)
	if err != nil {
		return nil, errors.New(apperr.UserMessage(err))
	}

	fmt.Fprintf(out, "Recording %q, press Ctrl+C to stop\n", session.Title)
	if err := waitForStop(ctx, d, events); err != nil {
		if apperr.KindOf(err) != "" {
			return nil, errors.New(apperr.UserMessage(err))
		}
		return nil, err
	}

	fmt.Fprintln(out, "Transcribing...")
	// A second Ctrl+C abandons transcription.
	stopCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	doc, err := ctrl.Stop(stopCtx)
	if err != nil {
		return nil, errors.New(apperr.UserMessage(err))
	}
	return doc, nil
}

// waitForStop returns nil on Ctrl+C or after d when d is positive. It
// returns the session's error if the controller moves to Error while
// recording, and the parent's error when the parent context ends.
func waitForStop(parent context.Context, d time.Duration, events <-chan app.Event) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var timer <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		timer = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return parent.Err()
		case <-timer:
			return nil
		case ev, ok := <-events:
			if !ok {
				return app.ErrSessionReset
			}
			if ev.State == app.StateError {
				if ev.Err != nil {
					return ev.Err
				}
				return apperr.New(apperr.CaptureFailed, "recording failed")
			}
		}
	}
}
