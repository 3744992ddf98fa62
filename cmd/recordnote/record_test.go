package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/transcribe"
)

// Mock implementations for testing
type failingStream struct {
	mu    sync.Mutex
	reads int
	// failAfter is the number of good reads before the device disappears.
	failAfter int
}

func (s *failingStream) Read() ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.reads > s.failAfter {
		return nil, errors.New("device unplugged")
	}
	time.Sleep(time.Millisecond)
	return []float32{0.1, 0.2}, nil
}

func (s *failingStream) Close() error { return nil }

type fakeSource struct {
	stream audio.Stream
}

func (f *fakeSource) Open(deviceID string, sampleRate, channels int) (audio.Stream, error) {
	return f.stream, nil
}

func (f *fakeSource) ListDevices() ([]audio.AudioDevice, error) { return nil, nil }

func (f *fakeSource) Close() error { return nil }

type fakeTranscriber struct {
	segments []transcribe.Segment
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, buf *audio.Buffer, language string) ([]transcribe.Segment, error) {
	return f.segments, nil
}

func newTestController(t *testing.T, stream audio.Stream) *app.Controller {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Audio.SampleRate = 10

	ctrl := app.New(app.Config{
		Source: &fakeSource{stream: stream},
		Transcriber: &fakeTranscriber{segments: []transcribe.Segment{
			{Index: 0, Text: "こんにちは", Start: 0, End: 0.1},
		}},
		Config: cfg,
		Logger: zerolog.Nop(),
	})
	t.Cleanup(func() { ctrl.Shutdown(context.Background()) })
	return ctrl
}

func TestRecordReportsDeviceFailure(t *testing.T) {
	ctrl := newTestController(t, &failingStream{failAfter: 3})

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		// The long duration means only the device failure can end the wait.
		_, err := recordMeeting(context.Background(), ctrl, "定例", time.Hour, &out)
		done <- err
	}()

	select {
	case err := <-done:
		want := apperr.UserMessage(apperr.New(apperr.CaptureFailed, "x"))
		if err == nil || err.Error() != want {
			t.Fatalf("expected %q, got %v", want, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recording did not end after the device failed")
	}

	if ctrl.State() != app.StateError {
		t.Errorf("expected error state, got %s", ctrl.State())
	}
	if strings.Contains(out.String(), "Transcribing") {
		t.Error("a failed recording must not be transcribed")
	}
}

func TestRecordStopsAfterDuration(t *testing.T) {
	ctrl := newTestController(t, &failingStream{failAfter: 1 << 30})

	var out bytes.Buffer
	doc, err := recordMeeting(context.Background(), ctrl, "定例", 50*time.Millisecond, &out)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if doc.Title() != "定例" || doc.Len() != 1 {
		t.Errorf("unexpected minutes: %q with %d segments", doc.Title(), doc.Len())
	}
	if !strings.Contains(out.String(), "Transcribing...") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRecordParentCancelled(t *testing.T) {
	ctrl := newTestController(t, &failingStream{failAfter: 1 << 30})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	if _, err := recordMeeting(ctx, ctrl, "", time.Hour, &out); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
