package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/audio/portaudio"
	"github.com/petems/recordnote/internal/export"
	"github.com/petems/recordnote/internal/permissions"
	"github.com/petems/recordnote/internal/tray"
)

func runTray(ctx context.Context, configPath string) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		log.Warn().Err(err).Msg("Microphone not available yet")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

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

	// Warm the model while the user gets ready to record. A failure here
	// is retried by the first transcription.
	go func() {
		if err := transcriber.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("Speech model not ready")
		}
	}()

	exporter := export.New(cfg.Output, log)

	// Create tray UI first (we'll pass it to the controller)
	trayUI := tray.New(exporter, cfg, log, Version, Commit)

	appCfg := app.Config{
		Source:        source,
		Transcriber:   transcriber,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	}
	if cfg.Output.KeepAudio {
		appCfg.Archiver = exporter
	}
	controller := app.New(appCfg)
	trayUI.SetController(controller)

	log.Info().
		Str("backend", cfg.Transcription.Backend).
		Str("model", cfg.Transcription.Model).
		Str("output", cfg.Output.Dir).
		Msg("recordnote starting...")

	// Start tray UI - MUST run on main thread
	err = trayUI.Run(ctx)

	log.Info().Msg("Shutting down...")
	if shutdownErr := controller.Shutdown(context.Background()); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("Shutdown error")
	}
	return err
}
