// Package whispercpp is a transcribe.Recognizer backed by a local
// whisper.cpp model.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/transcribe"
)

// whisper.cpp only accepts 16 kHz mono input.
const modelSampleRate = 16000

type whisperRecognizer struct {
	modelName string
	modelPath string
	threads   int
	log       zerolog.Logger

	mu    sync.Mutex
	model whisper.Model
}

// New creates a recognizer for cfg.Model. The model file is downloaded and
// loaded on Load, not here.
func New(cfg config.TranscriptionConfig, log zerolog.Logger) transcribe.Recognizer {
	return &whisperRecognizer{
		modelName: cfg.Model,
		modelPath: ModelPath(cfg.Model),
		threads:   cfg.Threads,
		log:       log,
	}
}

func (w *whisperRecognizer) Load(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		return nil
	}

	// Check if model exists, download if needed
	if _, err := os.Stat(w.modelPath); os.IsNotExist(err) {
		if err := Download(ctx, w.modelName, w.modelPath); err != nil {
			return fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisper.New(w.modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	w.model = model

	w.log.Info().
		Str("model", w.modelName).
		Bool("multilingual", model.IsMultilingual()).
		Msg("Whisper model loaded")
	return nil
}

func (w *whisperRecognizer) Recognize(ctx context.Context, req transcribe.Request) ([]transcribe.RawSegment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return nil, errors.New("model not loaded")
	}

	pcm := audio.Resample(audio.Mono(req.Samples, req.Channels), req.SampleRate, modelSampleRate)

	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	if w.threads > 0 {
		wctx.SetThreads(uint(w.threads))
	}
	if req.Language != "auto" && req.Language != "" {
		if err := wctx.SetLanguage(req.Language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", req.Language, err)
		}
	}
	wctx.SetTranslate(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// whisper.cpp asks before encoding each window; refusing aborts the run
	// and releases w.mu for the next session.
	if err := wctx.Process(pcm, keepGoing(ctx), nil, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("whisper process failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var segments []transcribe.RawSegment
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		segments = append(segments, transcribe.RawSegment{
			Text:  segment.Text,
			Start: segment.Start.Seconds(),
			End:   segment.End.Seconds(),
		})
	}
	return segments, nil
}

// keepGoing is the encoder-begin callback: inference continues while ctx
// is live.
func keepGoing(ctx context.Context) whisper.EncoderBeginCallback {
	return func() bool {
		return ctx.Err() == nil
	}
}

func (w *whisperRecognizer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		err := w.model.Close()
		w.model = nil
		return err
	}
	return nil
}
