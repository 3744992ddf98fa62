package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/rs/zerolog"
)

type EventKind int

const (
	EventChunk EventKind = iota
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "chunk"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	}
	return "unknown"
}

// Event is an immutable notification from the capture goroutine.
type Event struct {
	Kind    EventKind
	Samples int
	Offset  time.Duration
	Err     error
}

// Status is a lock-free view of a capture.
type Status struct {
	Running  bool
	Samples  int
	Recorded time.Duration
	Err      error
}

var errCaptureState = errors.New("audio: capture already opened or closed")

const (
	captureIdle = iota
	captureRunning
	captureClosed
)

// Capture drives one input stream into one Buffer. The stream handle
// never leaves the capture goroutine.
type Capture struct {
	src Source
	buf *Buffer
	log zerolog.Logger

	events chan Event
	stop   chan struct{}
	done   chan struct{}
	err    error // set before done is closed

	mu        sync.Mutex // serializes Open and Close
	state     atomic.Int32
	closeOnce sync.Once
}

// NewCapture binds a capture to buf. Nothing is opened until Open.
func NewCapture(src Source, buf *Buffer, log zerolog.Logger) *Capture {
	return &Capture{
		src:    src,
		buf:    buf,
		log:    log,
		events: make(chan Event, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Open acquires the device and starts the capture goroutine.
func (c *Capture) Open(deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Load() != captureIdle {
		return errCaptureState
	}

	w, err := c.buf.Lease()
	if err != nil {
		return err
	}

	stream, err := c.src.Open(deviceID, c.buf.SampleRate(), c.buf.Channels())
	if err != nil {
		w.Release()
		return apperr.Wrap(apperr.DeviceUnavailable, err, "open input device %q", deviceID)
	}

	c.state.Store(captureRunning)
	c.log.Debug().
		Str("device", deviceID).
		Int("sample_rate", c.buf.SampleRate()).
		Int("channels", c.buf.Channels()).
		Msg("Capture opened")

	go c.run(stream, w)
	return nil
}

func (c *Capture) run(stream Stream, w *Writer) {
	defer func() {
		if err := stream.Close(); err != nil {
			c.log.Warn().Err(err).Msg("Failed to close input stream")
		}
		w.Release()
		c.emit(Event{Kind: EventClosed})
		close(c.events)
		close(c.done)
	}()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		samples, err := stream.Read()

		select {
		case <-c.stop:
			// Anything read while Close was waiting is not part of the recording.
			return
		default:
		}

		if err != nil {
			c.err = apperr.Wrap(apperr.CaptureFailed, err, "read input stream")
			c.log.Error().Err(err).Msg("Input stream failed")
			c.emit(Event{Kind: EventError, Err: c.err})
			return
		}

		if err := w.Append(samples); err != nil {
			return
		}
		c.emit(Event{Kind: EventChunk, Samples: len(samples), Offset: time.Since(c.buf.created)})
	}
}

// emit never blocks the capture goroutine; events are dropped when nobody
// is draining them. Done and Err remain authoritative.
func (c *Capture) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// Events delivers chunk, error and closed notifications. The channel is
// closed after the capture ends.
func (c *Capture) Events() <-chan Event { return c.events }

// Done is closed once the capture goroutine has exited and released the
// device and the buffer lease.
func (c *Capture) Done() <-chan struct{} { return c.done }

// Err returns the fatal stream error, if the capture has ended with one.
// It never blocks.
func (c *Capture) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Status never blocks on the capture goroutine.
func (c *Capture) Status() Status {
	st := Status{
		Samples:  c.buf.SampleCount(),
		Recorded: c.buf.Duration(),
	}
	select {
	case <-c.done:
		st.Err = c.err
	default:
		st.Running = c.state.Load() == captureRunning
	}
	return st
}

// Close stops the stream and returns the finalized buffer. It is
// idempotent and safe after a stream error.
func (c *Capture) Close() *Buffer {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		prev := c.state.Swap(captureClosed)
		c.mu.Unlock()

		close(c.stop)
		if prev == captureRunning {
			<-c.done
			return
		}

		// never opened: finalize the buffer ourselves
		if w, err := c.buf.Lease(); err == nil {
			w.Release()
		}
		close(c.events)
		close(c.done)
	})
	return c.buf
}
