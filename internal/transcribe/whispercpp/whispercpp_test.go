package whispercpp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/transcribe"
)

func TestKeepGoingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := keepGoing(ctx)

	if !cb() {
		t.Fatal("expected inference to continue while the context is live")
	}
	cancel()
	if cb() {
		t.Fatal("expected inference to abort after cancel")
	}
}

func TestRecognizeWithoutModel(t *testing.T) {
	rec := New(config.TranscriptionConfig{Model: "base"}, zerolog.Nop())
	if _, err := rec.Recognize(context.Background(), transcribe.Request{SampleRate: 16000, Channels: 1}); err == nil {
		t.Error("expected error before Load")
	}
}

func TestModelPathUsesModelsDir(t *testing.T) {
	if got := ModelPath("small"); got != filepath.Join(config.ModelsPath(), "ggml-small.bin") {
		t.Errorf("unexpected model path %s", got)
	}
}
