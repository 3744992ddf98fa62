// Package apperr holds the error taxonomy shared by capture, transcription
// and the recording controller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at the controller boundary.
type Kind string

const (
	DeviceUnavailable Kind = "device_unavailable"
	CaptureFailed     Kind = "capture_failed"
	EmptyAudio        Kind = "empty_audio"
	ModelUnavailable  Kind = "model_unavailable"
	InferenceError    Kind = "inference_error"
)

// Reasons refine InferenceError.
const (
	ReasonTimeout    = "timeout"
	ReasonOverlap    = "overlap"
	ReasonUnordered  = "unordered"
	ReasonMalformed  = "malformed"
	ReasonNoSegments = "no_segments"
	ReasonCanceled   = "canceled"
	ReasonBackend    = "backend"
)

// Sentinels for errors.Is. A sentinel without a reason matches any reason of its kind.
var (
	ErrDeviceUnavailable = &Error{Kind: DeviceUnavailable}
	ErrCaptureFailed     = &Error{Kind: CaptureFailed}
	ErrEmptyAudio        = &Error{Kind: EmptyAudio}
	ErrModelUnavailable  = &Error{Kind: ModelUnavailable}
	ErrInference         = &Error{Kind: InferenceError}
	ErrTimeout           = &Error{Kind: InferenceError, Reason: ReasonTimeout}
)

// Error is a classified failure carrying enough context for a user-facing message.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var s string
	if e.Reason != "" {
		s = fmt.Sprintf("%s(%s)", e.Kind, e.Reason)
	} else {
		s = string(e.Kind)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind, and on Reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Inference creates an InferenceError with a reason.
func Inference(reason string, cause error, format string, args ...any) *Error {
	return &Error{Kind: InferenceError, Reason: reason, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// UserMessage renders err for the presentation layer.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := As(err)
	if !ok {
		return err.Error()
	}
	switch e.Kind {
	case DeviceUnavailable:
		return "No usable microphone was found"
	case CaptureFailed:
		return "The microphone stopped delivering audio"
	case EmptyAudio:
		return "Nothing was recorded"
	case ModelUnavailable:
		return "The speech model could not be loaded"
	case InferenceError:
		if e.Reason == ReasonTimeout {
			return "Transcription took too long and was cancelled"
		}
		return "Transcription failed"
	}
	return e.Error()
}
