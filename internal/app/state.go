package app

import (
	"errors"
	"time"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/petems/recordnote/internal/minutes"
)

type State int

const (
	StateStopped State = iota
	StateRecording
	StateProcessing
	StateCompleted
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	ErrBusy         = errors.New("a recording session is already active")
	ErrNotRecording = errors.New("not recording")
	ErrSessionReset = errors.New("session was reset")
)

// Session is one recording attempt.
type Session struct {
	ID        string
	Title     string
	StartedAt time.Time
	State     State
	Duration  time.Duration
	Err       error
}

// Snapshot is a consistent copy of the controller's observable state.
type Snapshot struct {
	State State
	// Kind is set when State is StateError.
	Kind    apperr.Kind
	Session *Session
	// Recorded is the audio captured so far, or the final length once
	// recording has stopped.
	Recorded time.Duration
	Document *minutes.Document
	LastErr  error
}

// Event is published on every state transition.
type Event struct {
	State   State
	Kind    apperr.Kind
	Session Session
	Err     error
}
