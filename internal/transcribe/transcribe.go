// Package transcribe turns a finalized audio buffer into validated,
// timestamped transcript segments using an external speech recognizer.
package transcribe

import (
	"context"
)

// DefaultLanguage is used when neither the caller nor the options name one.
const DefaultLanguage = "ja"

// Segment is a validated unit of recognized text. Offsets are seconds from
// the start of the session.
type Segment struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RawSegment is what a recognizer returns before validation.
type RawSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Request is the audio handed to a recognizer.
type Request struct {
	Samples    []float32
	SampleRate int
	Channels   int
	Language   string
}

// Recognizer is the speech-recognition service. Implementations may be a
// local model or a remote call.
type Recognizer interface {
	// Load prepares the model. It is called once before the first Recognize.
	Load(ctx context.Context) error
	Recognize(ctx context.Context, req Request) ([]RawSegment, error)
	Close() error
}

// ModelState tracks recognizer loading.
type ModelState int

const (
	ModelUninitialized ModelState = iota
	ModelLoading
	ModelReady
)

func (s ModelState) String() string {
	switch s {
	case ModelUninitialized:
		return "uninitialized"
	case ModelLoading:
		return "loading"
	case ModelReady:
		return "ready"
	}
	return "unknown"
}
