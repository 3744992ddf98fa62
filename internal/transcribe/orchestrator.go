package transcribe

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/audio"
	"github.com/rs/zerolog"
)

// Options configures an Orchestrator.
type Options struct {
	Language string
	// Timeout bounds a single Transcribe call, model loading included.
	// Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

type loadAttempt struct {
	done chan struct{}
	err  error
}

// Orchestrator hands finalized buffers to a Recognizer and validates what
// comes back.
type Orchestrator struct {
	rec  Recognizer
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	state   ModelState
	attempt *loadAttempt
	lastErr error
}

func New(rec Recognizer, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	return &Orchestrator{
		rec:  rec,
		opts: opts,
		log:  log,
	}
}

// ModelState reports Uninitialized, Loading or Ready.
func (o *Orchestrator) ModelState() ModelState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LoadError is the error of the most recent failed load, if any.
func (o *Orchestrator) LoadError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Load moves the model from Uninitialized through Loading to Ready. A
// failed load reports ModelUnavailable and returns to Uninitialized, so a
// later call retries. Concurrent callers share one attempt.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case ModelReady:
		o.mu.Unlock()
		return nil
	case ModelUninitialized:
		o.state = ModelLoading
		o.attempt = &loadAttempt{done: make(chan struct{})}
		go o.load(o.attempt)
	}
	attempt := o.attempt
	o.mu.Unlock()

	select {
	case <-attempt.done:
		return attempt.err
	case <-ctx.Done():
		return contextError(ctx.Err(), "waiting for model")
	}
}

// load runs detached from any one caller: a model is shared across sessions
// and most backends cannot abort a load halfway.
func (o *Orchestrator) load(attempt *loadAttempt) {
	start := time.Now()
	o.log.Info().Msg("Loading speech model")

	err := o.rec.Load(context.Background())

	o.mu.Lock()
	if err != nil {
		attempt.err = apperr.Wrap(apperr.ModelUnavailable, err, "load speech model")
		o.state = ModelUninitialized
		o.lastErr = attempt.err
	} else {
		o.state = ModelReady
		o.lastErr = nil
	}
	close(attempt.done)
	o.mu.Unlock()

	if err != nil {
		o.log.Error().Err(err).Msg("Speech model failed to load")
		return
	}
	o.log.Info().Dur("elapsed", time.Since(start)).Msg("Speech model ready")
}

// Transcribe recognizes a finalized buffer. It fails with EmptyAudio,
// ModelUnavailable or InferenceError; it never returns an empty success.
func (o *Orchestrator) Transcribe(ctx context.Context, buf *audio.Buffer, language string) ([]Segment, error) {
	if buf == nil {
		return nil, apperr.New(apperr.EmptyAudio, "no audio buffer")
	}
	if !buf.Finalized() {
		return nil, apperr.Inference(apperr.ReasonMalformed, audio.ErrNotFinalized, "buffer handed over while still recording")
	}
	if buf.Seconds() <= 0 {
		return nil, apperr.New(apperr.EmptyAudio, "buffer holds no audio")
	}
	if language == "" {
		language = o.opts.Language
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	if err := o.Load(ctx); err != nil {
		return nil, err
	}

	samples, err := buf.Samples()
	if err != nil {
		return nil, apperr.Inference(apperr.ReasonMalformed, err, "read buffer")
	}
	req := Request{
		Samples:    samples,
		SampleRate: buf.SampleRate(),
		Channels:   buf.Channels(),
		Language:   language,
	}

	start := time.Now()
	raw, err := o.recognize(ctx, req)
	if err != nil {
		o.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Transcription failed")
		return nil, err
	}

	segments, err := Validate(raw)
	if err != nil {
		o.log.Error().Err(err).Int("raw_segments", len(raw)).Msg("Rejected recognizer output")
		return nil, err
	}

	o.log.Info().
		Int("segments", len(segments)).
		Float64("audio_seconds", buf.Seconds()).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription complete")
	return segments, nil
}

type recognizeResult struct {
	segments []RawSegment
	err      error
}

// recognize runs the recognizer on its own goroutine so that a deadline or
// a reset wins even when the backend ignores ctx. A late result is dropped.
func (o *Orchestrator) recognize(ctx context.Context, req Request) ([]RawSegment, error) {
	ch := make(chan recognizeResult, 1)
	go func() {
		segs, err := o.rec.Recognize(ctx, req)
		ch <- recognizeResult{segments: segs, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil {
			return r.segments, nil
		}
		if ctx.Err() != nil {
			return nil, contextError(ctx.Err(), "recognize")
		}
		if _, ok := apperr.As(r.err); ok {
			return nil, r.err
		}
		return nil, apperr.Inference(apperr.ReasonBackend, r.err, "recognize")
	case <-ctx.Done():
		return nil, contextError(ctx.Err(), "recognize")
	}
}

func contextError(err error, what string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Inference(apperr.ReasonTimeout, err, "%s", what)
	}
	return apperr.Inference(apperr.ReasonCanceled, err, "%s", what)
}

// Close releases the recognizer.
func (o *Orchestrator) Close() error {
	return o.rec.Close()
}
