package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/minutes"
	"github.com/petems/recordnote/internal/transcribe"
)

var meetingDate = time.Date(2026, 10, 16, 9, 5, 3, 0, time.UTC)

func testDocument(t *testing.T) *minutes.Document {
	t.Helper()
	doc, err := minutes.Assemble(minutes.Metadata{
		Title:    "定例会議",
		Date:     meetingDate,
		Duration: 1200 * time.Millisecond,
	}, []transcribe.Segment{
		{Index: 0, Text: "こんにちは", Start: 0.0, End: 0.6},
		{Index: 1, Text: "よろしく", Start: 0.6, End: 1.2},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return doc
}

func newTestExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "minutes")
	return New(config.OutputConfig{Dir: dir}, zerolog.Nop()), dir
}

func TestSaveMinutesWritesParsableFile(t *testing.T) {
	e, dir := newTestExporter(t)
	doc := testDocument(t)

	path, err := e.SaveMinutes(doc)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	want := filepath.Join(dir, "meeting_minutes_"+meetingDate.Local().Format("20060102_150405")+".md")
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := minutes.Parse(data)
	if err != nil {
		t.Fatalf("parse saved minutes: %v", err)
	}
	if !parsed.Equal(doc) {
		t.Error("saved minutes do not round-trip")
	}
}

func TestSaveMinutesNeverOverwrites(t *testing.T) {
	e, _ := newTestExporter(t)
	doc := testDocument(t)

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		path, err := e.SaveMinutes(doc)
		if err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		if seen[path] {
			t.Fatalf("path %s reused", path)
		}
		seen[path] = true
	}

	for path := range seen {
		if strings.HasSuffix(path, "_2.md") {
			return
		}
	}
	t.Errorf("expected a _2 suffix among %v", seen)
}

func TestSaveMinutesNilDocument(t *testing.T) {
	e, _ := newTestExporter(t)
	if _, err := e.SaveMinutes(nil); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}

func TestSaveMinutesUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	e := New(config.OutputConfig{Dir: filepath.Join(file, "sub")}, zerolog.Nop())

	if _, err := e.SaveMinutes(testDocument(t)); err == nil {
		t.Error("expected error when the output directory cannot be created")
	}
}

func TestSaveAudio(t *testing.T) {
	e, dir := newTestExporter(t)
	buf := audio.FromSamples(16000, 1, []float32{0, 0.25, -0.25, 0.5})

	session := app.Session{ID: "abc", StartedAt: meetingDate}
	path, err := e.SaveAudio(session, buf)
	if err != nil {
		t.Fatalf("save audio: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "recording_") {
		t.Errorf("unexpected path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := audio.ReadWAV(f)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if decoded.SampleRate() != 16000 || decoded.SampleCount() != 4 {
		t.Errorf("unexpected decoded buffer: %d Hz, %d samples", decoded.SampleRate(), decoded.SampleCount())
	}
}

func TestSaveAudioUnfinalizedBufferLeavesNoFile(t *testing.T) {
	e, dir := newTestExporter(t)
	buf := audio.NewBuffer(16000, 1)

	if _, err := e.SaveAudio(app.Session{ID: "abc", StartedAt: meetingDate}, buf); err == nil {
		t.Fatal("expected error for a buffer still recording")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no partial files, found %d", len(entries))
	}
}

func TestCopy(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	defer func() { writeClipboard = orig }()

	e, _ := newTestExporter(t)
	doc := testDocument(t)

	if err := e.Copy(doc); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if copied != string(minutes.Serialize(doc)) {
		t.Error("clipboard does not hold the serialized minutes")
	}
}

func TestCopyFailure(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	defer func() { writeClipboard = orig }()

	e, _ := newTestExporter(t)
	if err := e.Copy(testDocument(t)); err == nil {
		t.Error("expected clipboard error")
	}
	if err := e.Copy(nil); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
}
