package audio

// Source is the OS audio input boundary.
type Source interface {
	// Open acquires an input device and starts delivering interleaved
	// float32 samples. An empty deviceID selects the default input.
	Open(deviceID string, sampleRate, channels int) (Stream, error)
	ListDevices() ([]AudioDevice, error)
	Close() error
}

// Stream is an open input stream. It is confined to the capture goroutine.
type Stream interface {
	// Read blocks until the device delivers its next chunk. Chunk size is
	// not fixed. The returned slice may be reused by the next call and
	// Read must return within one device buffer period.
	Read() ([]float32, error)
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID       string
	Name     string
	Channels int
	Default  bool
}
