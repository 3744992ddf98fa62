package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/logging"
	"github.com/petems/recordnote/internal/transcribe"
	"github.com/petems/recordnote/internal/transcribe/whispercpp"
)

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and the logger every command shares.
func setup(path string) (*config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, logging.New(), err
	}
	return cfg, logging.NewWithLevel(cfg.LogLevel), nil
}

// newRecognizer builds the speech-recognition backend named in the config.
func newRecognizer(cfg config.TranscriptionConfig, log zerolog.Logger) (transcribe.Recognizer, error) {
	log = log.With().Str("backend", cfg.Backend).Logger()

	switch cfg.Backend {
	case config.BackendWhisperCpp, "":
		return whispercpp.New(cfg, log), nil
	case config.BackendExec:
		return transcribe.NewExecRecognizer(cfg.Command, cfg.Model, log)
	case config.BackendHTTP:
		return transcribe.NewHTTPRecognizer(cfg.URL, cfg.Model, log), nil
	}
	return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
}

func newTranscriber(cfg *config.Config, log zerolog.Logger) (*transcribe.Orchestrator, error) {
	rec, err := newRecognizer(cfg.Transcription, log)
	if err != nil {
		return nil, err
	}
	return transcribe.New(rec, transcribe.Options{
		Language: cfg.Transcription.Language,
		Timeout:  cfg.Transcription.Timeout.Duration,
	}, log), nil
}
