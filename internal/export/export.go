package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/app"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/minutes"
)

const (
	minutesPrefix = "meeting_minutes_"
	audioPrefix   = "recording_"
	stampLayout   = "20060102_150405"

	// maxSuffix bounds the search for a free file name.
	maxSuffix = 1000
)

var ErrNoDocument = errors.New("no minutes to export")

// Exporter writes finished minutes and session audio to the output
// directory and copies minutes to the clipboard.
type Exporter struct {
	cfg config.OutputConfig
	log zerolog.Logger
	now func() time.Time
}

func New(cfg config.OutputConfig, log zerolog.Logger) *Exporter {
	return &Exporter{
		cfg: cfg,
		log: log,
		now: time.Now,
	}
}

// SaveMinutes writes the serialized document as
// meeting_minutes_YYYYMMDD_HHMMSS.md, named after the meeting date.
func (e *Exporter) SaveMinutes(doc *minutes.Document) (string, error) {
	if doc == nil {
		return "", ErrNoDocument
	}
	date := doc.Date()
	if date.IsZero() {
		date = e.now()
	}
	return e.write(minutesPrefix+date.Local().Format(stampLayout), ".md", func(f *os.File) error {
		_, err := f.Write(minutes.Serialize(doc))
		return err
	})
}

// SaveAudio keeps the session's recording as a WAV file next to the
// minutes.
func (e *Exporter) SaveAudio(session app.Session, buf *audio.Buffer) (string, error) {
	if buf == nil {
		return "", fmt.Errorf("session %s has no audio", session.ID)
	}
	started := session.StartedAt
	if started.IsZero() {
		started = e.now()
	}
	return e.write(audioPrefix+started.Local().Format(stampLayout), ".wav", func(f *os.File) error {
		return audio.WriteBuffer(f, buf)
	})
}

// write creates base+ext in the output directory, adding _1, _2, ... when
// the name is taken. The file is never overwritten.
func (e *Exporter) write(base, ext string, fill func(*os.File) error) (string, error) {
	if err := os.MkdirAll(e.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f, path, err := e.create(base, ext)
	if err != nil {
		return "", err
	}

	if err := fill(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}

	e.log.Debug().Str("path", path).Msg("File exported")
	return path, nil
}

func (e *Exporter) create(base, ext string) (*os.File, string, error) {
	for i := 0; i < maxSuffix; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		path := filepath.Join(e.cfg.Dir, name)

		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s%s", base, ext)
}
