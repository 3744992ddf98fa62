//go:build !darwin

package permissions

// Other platforms gate microphone access at the device level, which
// surfaces when the stream is opened.
func microphoneStatus() Status { return Authorized }

func requestMicrophone() {}
