package permissions

import "github.com/petems/recordnote/internal/apperr"

// Status is the operating system's answer to "may this process record?".
type Status int

const (
	NotDetermined Status = iota
	Restricted
	Denied
	Authorized
)

func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "not determined"
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

// Overridden in tests.
var (
	checkFn   = microphoneStatus
	requestFn = requestMicrophone
)

// CheckMicrophone returns the current microphone permission status.
func CheckMicrophone() Status {
	return checkFn()
}

// EnsureMicrophone asks for microphone access when it has not been decided
// yet. Without access recording cannot start, so the error is a
// DeviceUnavailable one.
func EnsureMicrophone() error {
	switch status := checkFn(); status {
	case Authorized:
		return nil
	case NotDetermined:
		requestFn()
		return apperr.New(apperr.DeviceUnavailable, "microphone permission requested, grant it and start again")
	default:
		return apperr.New(apperr.DeviceUnavailable, "microphone permission %s: enable it in System Settings → Privacy & Security → Microphone", status)
	}
}
