package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio"
	"github.com/petems/recordnote/internal/config"
	"github.com/petems/recordnote/internal/minutes"
	"github.com/petems/recordnote/internal/transcribe"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetProcessing()
	SetCompleted()
	SetError(message string)
}

// Transcriber turns a finalized buffer into validated segments.
type Transcriber interface {
	Transcribe(ctx context.Context, buf *audio.Buffer, language string) ([]transcribe.Segment, error)
}

// Archiver keeps the raw audio of a session.
type Archiver interface {
	SaveAudio(session Session, buf *audio.Buffer) (string, error)
}

type Config struct {
	Source        audio.Source
	Transcriber   Transcriber
	Archiver      Archiver // Optional - can be nil
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

// Controller owns the recording lifecycle: one session at a time, moving
// through Stopped, Recording, Processing and then Completed or Error.
type Controller struct {
	src      audio.Source
	stt      Transcriber
	archiver Archiver
	cfg      *config.Config
	log      zerolog.Logger
	status   StatusUpdater

	mu      sync.Mutex
	state   State
	kind    apperr.Kind
	session *Session
	buf     *audio.Buffer
	capture *audio.Capture
	doc     *minutes.Document
	lastErr error
	cancel  context.CancelFunc
	// starting is set while Start opens the device outside the lock.
	starting bool
	// gen changes on every Start and Reset; work started under an older
	// generation must not touch the current session.
	gen uint64

	subs    map[int]chan Event
	nextSub int
}

func New(cfg Config) *Controller {
	return &Controller{
		src:      cfg.Source,
		stt:      cfg.Transcriber,
		archiver: cfg.Archiver,
		cfg:      cfg.Config,
		log:      cfg.Logger,
		status:   cfg.StatusUpdater,
		subs:     make(map[int]chan Event),
	}
}

// Start opens the input device and begins a new session. It is rejected
// with ErrBusy unless the controller is Stopped. If no device can be
// opened the controller stays Stopped and the DeviceUnavailable error is
// returned and kept as the last error. The device is opened without
// holding the controller lock, so Snapshot stays responsive; a Reset that
// lands meanwhile wins and Start returns ErrSessionReset.
func (c *Controller) Start(title string) (Session, error) {
	c.mu.Lock()
	if c.state != StateStopped || c.starting {
		c.mu.Unlock()
		return Session{}, ErrBusy
	}
	c.starting = true
	gen := c.gen
	audioCfg := c.cfg.Audio
	title = strings.TrimSpace(title)
	if title == "" {
		title = c.cfg.Title
	}
	c.mu.Unlock()

	session := &Session{
		ID:        uuid.NewString(),
		Title:     title,
		StartedAt: time.Now(),
		State:     StateRecording,
	}
	log := c.log.With().Str("session", session.ID).Logger()

	buf := audio.NewBuffer(audioCfg.SampleRate, audioCfg.Channels)
	capture := audio.NewCapture(c.src, buf, log)
	openErr := capture.Open(audioCfg.DeviceID)
	if openErr != nil {
		capture.Close()
	}

	c.mu.Lock()
	c.starting = false
	if c.gen != gen {
		c.mu.Unlock()
		if openErr == nil {
			capture.Close()
		}
		return Session{}, ErrSessionReset
	}
	defer c.mu.Unlock()

	if openErr != nil {
		err := openErr
		if apperr.KindOf(err) == "" {
			err = apperr.Wrap(apperr.DeviceUnavailable, err, "open capture")
		}
		log.Error().Err(err).Msg("Failed to start recording")
		c.lastErr = err
		if c.status != nil {
			c.status.SetError(apperr.UserMessage(err))
		}
		c.publishLocked(Event{State: StateStopped, Kind: apperr.KindOf(err), Err: err})
		return Session{}, err
	}

	c.gen++
	c.session = session
	c.buf = buf
	c.capture = capture
	c.doc = nil
	c.lastErr = nil
	c.kind = ""
	c.setStateLocked(StateRecording)

	log.Info().Str("title", title).Msg("Recording started")
	go c.watchCapture(c.gen, capture)

	return *session, nil
}

// watchCapture turns an asynchronous stream failure into
// Error(CaptureFailed). It only reads the capture's events and never
// blocks the capture goroutine.
func (c *Controller) watchCapture(gen uint64, capture *audio.Capture) {
	for ev := range capture.Events() {
		if ev.Kind == audio.EventChunk {
			c.log.Trace().Int("samples", ev.Samples).Dur("offset", ev.Offset).Msg("Chunk captured")
		}
	}
	<-capture.Done()

	err := capture.Err()
	if err == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != StateRecording {
		return
	}
	c.failLocked(err)
}

// Stop ends the recording and transcribes it. The call blocks for the
// length of inference and returns the assembled minutes. It can be
// cancelled through ctx or by Reset; either way no document is produced.
func (c *Controller) Stop(ctx context.Context) (*minutes.Document, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	gen := c.gen
	capture := c.capture
	session := *c.session
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setStateLocked(StateProcessing)
	c.mu.Unlock()
	defer cancel()

	buf := capture.Close()
	if err := capture.Err(); err != nil {
		return nil, c.finish(gen, nil, err)
	}

	session.Duration = buf.Duration()
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil, ErrSessionReset
	}
	c.session.Duration = session.Duration
	c.mu.Unlock()

	log := c.log.With().Str("session", session.ID).Logger()
	log.Info().
		Dur("recorded", session.Duration).
		Int("samples", buf.SampleCount()).
		Msg("Recording stopped, transcribing")

	if c.archiver != nil && buf.SampleCount() > 0 {
		if path, err := c.archiver.SaveAudio(session, buf); err != nil {
			log.Warn().Err(err).Msg("Failed to archive audio")
		} else {
			log.Info().Str("path", path).Msg("Audio archived")
		}
	}

	segments, err := c.stt.Transcribe(ctx, buf, c.cfg.Transcription.Language)
	if err != nil {
		return nil, c.finish(gen, nil, err)
	}

	doc, err := minutes.Assemble(minutes.Metadata{
		Title:    session.Title,
		Date:     session.StartedAt,
		Duration: session.Duration,
		Language: c.cfg.Transcription.Language,
	}, segments)
	if err != nil {
		return nil, c.finish(gen, nil, apperr.Inference(apperr.ReasonMalformed, err, "assemble minutes"))
	}

	if err := c.finish(gen, doc, nil); err != nil {
		return nil, err
	}
	log.Info().Int("segments", doc.Len()).Msg("Minutes ready")
	return doc, nil
}

// finish applies the outcome of Stop unless the session was reset in the
// meantime.
func (c *Controller) finish(gen uint64, doc *minutes.Document, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return ErrSessionReset
	}
	c.cancel = nil

	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Inference(apperr.ReasonBackend, err, "transcription")
		}
		c.failLocked(err)
		return err
	}

	c.doc = doc
	c.setStateLocked(StateCompleted)
	return nil
}

// failLocked moves to Error(kind) and discards the session's audio.
func (c *Controller) failLocked(err error) {
	c.lastErr = err
	c.kind = apperr.KindOf(err)
	c.doc = nil
	if c.buf != nil && c.buf.Finalized() {
		if clearErr := c.buf.Clear(); clearErr != nil {
			c.log.Warn().Err(clearErr).Msg("Failed to clear buffer")
		}
	}
	if c.session != nil {
		c.session.Err = err
	}
	c.log.Error().Err(err).Str("kind", string(c.kind)).Msg("Session failed")
	c.setStateLocked(StateError)
}

// Reset returns to Stopped from any state. In-flight inference is
// cancelled, the device is released and all session data is dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	cancel := c.cancel
	capture := c.capture
	buf := c.buf
	c.cancel = nil
	c.capture = nil
	c.buf = nil
	c.session = nil
	c.doc = nil
	c.lastErr = nil
	c.kind = ""
	c.setStateLocked(StateStopped)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if capture != nil {
		buf = capture.Close()
	}
	if buf != nil {
		if err := buf.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to clear buffer")
		}
	}
	c.log.Info().Msg("Session reset")
}

// Shutdown releases everything held by the current session.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	return nil
}

func (c *Controller) setStateLocked(s State) {
	c.state = s
	if c.session != nil {
		c.session.State = s
	}

	if c.status != nil {
		switch s {
		case StateStopped:
			c.status.SetIdle()
		case StateRecording:
			c.status.SetRecording()
		case StateProcessing:
			c.status.SetProcessing()
		case StateCompleted:
			c.status.SetCompleted()
		case StateError:
			c.status.SetError(apperr.UserMessage(c.lastErr))
		}
	}

	ev := Event{State: s, Kind: c.kind, Err: c.lastErr}
	if c.session != nil {
		ev.Session = *c.session
	}
	c.publishLocked(ev)
}

// publishLocked never blocks; a subscriber that falls behind misses events
// and can catch up with Snapshot.
func (c *Controller) publishLocked(ev Event) {
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of state transitions and a function that
// cancels the subscription.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, 16)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot never waits on the capture goroutine.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:    c.state,
		Kind:     c.kind,
		Document: c.doc,
		LastErr:  c.lastErr,
	}
	if c.session != nil {
		s := *c.session
		snap.Session = &s
		snap.Recorded = s.Duration
	}
	if c.state == StateRecording && c.capture != nil {
		snap.Recorded = c.capture.Status().Recorded
	}
	return snap
}

// Document returns the minutes of a completed session, or nil.
func (c *Controller) Document() *minutes.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

func (c *Controller) ListDevices() ([]audio.AudioDevice, error) {
	return c.src.ListDevices()
}

// SetDevice changes the input device for the next session.
func (c *Controller) SetDevice(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.starting || c.state == StateRecording || c.state == StateProcessing {
		return ErrBusy
	}

	c.cfg.Audio.DeviceID = id
	return c.cfg.Save()
}
