package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrFinalized    = errors.New("audio: buffer is finalized")
	ErrNotFinalized = errors.New("audio: buffer is still being written")
	ErrLeased       = errors.New("audio: buffer already has a writer")
)

// Chunk is one delivery from the capture device. Samples are interleaved
// when the buffer has more than one channel.
type Chunk struct {
	Samples []float32
	// Offset is the arrival time relative to buffer creation.
	Offset time.Duration
}

// Buffer accumulates the chunks of a single recording. It has exactly one
// writer, obtained with Lease, and may only be read once that writer has
// released it.
type Buffer struct {
	sampleRate int
	channels   int
	created    time.Time

	mu        sync.Mutex
	chunks    []Chunk
	leased    bool
	finalized bool

	// mirrored outside mu so status polling never waits on the writer
	samples atomic.Int64
	done    atomic.Bool
}

// NewBuffer creates an empty buffer.
func NewBuffer(sampleRate, channels int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	return &Buffer{
		sampleRate: sampleRate,
		channels:   channels,
		created:    time.Now(),
	}
}

// FromSamples returns a finalized buffer holding samples as a single chunk.
func FromSamples(sampleRate, channels int, samples []float32) *Buffer {
	b := NewBuffer(sampleRate, channels)
	w, _ := b.Lease()
	_ = w.Append(samples)
	w.Release()
	return b
}

// Writer is the exclusive write lease on a Buffer.
type Writer struct {
	b        *Buffer
	released atomic.Bool
}

// Lease grants the single write lease. It fails if a lease was already
// granted or the buffer is finalized.
func (b *Buffer) Lease() (*Writer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finalized {
		return nil, ErrFinalized
	}
	if b.leased {
		return nil, ErrLeased
	}
	b.leased = true
	return &Writer{b: b}, nil
}

// Append copies samples into a new chunk.
func (w *Writer) Append(samples []float32) error {
	if w.released.Load() {
		return ErrFinalized
	}
	if len(samples) == 0 {
		return nil
	}

	chunk := Chunk{
		Samples: make([]float32, len(samples)),
		Offset:  time.Since(w.b.created),
	}
	copy(chunk.Samples, samples)

	b := w.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrFinalized
	}
	b.chunks = append(b.chunks, chunk)
	b.samples.Add(int64(len(samples)))
	return nil
}

// Release gives up the lease and finalizes the buffer. Calling it more
// than once is harmless.
func (w *Writer) Release() {
	if w.released.Swap(true) {
		return
	}
	b := w.b
	b.mu.Lock()
	b.finalized = true
	b.done.Store(true)
	b.mu.Unlock()
}

func (b *Buffer) SampleRate() int { return b.sampleRate }

func (b *Buffer) Channels() int { return b.channels }

// Finalized reports whether the writer has released the buffer.
func (b *Buffer) Finalized() bool { return b.done.Load() }

// SampleCount is the number of interleaved samples appended so far.
func (b *Buffer) SampleCount() int { return int(b.samples.Load()) }

// Frames is the number of sample frames (samples per channel).
func (b *Buffer) Frames() int { return b.SampleCount() / b.channels }

// Seconds is the recorded audio length.
func (b *Buffer) Seconds() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.sampleRate)
}

// Duration is Seconds as a time.Duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// Chunks returns a copy of every chunk in delivery order.
func (b *Buffer) Chunks() ([]Chunk, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.finalized {
		return nil, ErrNotFinalized
	}
	out := make([]Chunk, len(b.chunks))
	for i, c := range b.chunks {
		out[i] = Chunk{Samples: append([]float32(nil), c.Samples...), Offset: c.Offset}
	}
	return out, nil
}

// Samples returns all chunks concatenated.
func (b *Buffer) Samples() ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.finalized {
		return nil, ErrNotFinalized
	}
	out := make([]float32, 0, b.samples.Load())
	for _, c := range b.chunks {
		out = append(out, c.Samples...)
	}
	return out, nil
}

// Clear drops all audio. Only a finalized buffer can be cleared.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.finalized {
		return ErrNotFinalized
	}
	b.chunks = nil
	b.samples.Store(0)
	return nil
}
