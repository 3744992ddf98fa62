// Package portaudio implements audio.Source on top of PortAudio blocking
// input streams.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/petems/recordnote/internal/audio"
	"github.com/rs/zerolog"
)

const framesPerBuffer = 512

type portAudioSource struct {
	log zerolog.Logger
}

// New initializes PortAudio. Close terminates it.
func New(log zerolog.Logger) (audio.Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioSource{log: log}, nil
}

func (p *portAudioSource) Open(deviceID string, sampleRate, channels int) (audio.Stream, error) {
	device, err := findDevice(deviceID)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < channels {
		return nil, fmt.Errorf("device %q supports %d input channels, %d requested",
			device.Name, device.MaxInputChannels, channels)
	}

	buffer := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	p.log.Info().
		Str("device", device.Name).
		Int("sample_rate", sampleRate).
		Int("channels", channels).
		Msg("Audio stream started")

	return &portAudioStream{stream: stream, buffer: buffer, log: p.log}, nil
}

func findDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == deviceID && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", deviceID)
}

func (p *portAudioSource) ListDevices() ([]audio.AudioDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]audio.AudioDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, audio.AudioDevice{
				ID:       d.Name,
				Name:     d.Name,
				Channels: d.MaxInputChannels,
				Default:  d == defaultDevice,
			})
		}
	}

	return result, nil
}

func (p *portAudioSource) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	buffer []float32
	log    zerolog.Logger
}

func (s *portAudioStream) Read() ([]float32, error) {
	if err := s.stream.Read(); err != nil {
		// An overflow loses samples but the device is still alive.
		if err == portaudio.InputOverflowed {
			s.log.Warn().Msg("Input overflowed")
			return s.buffer, nil
		}
		return nil, err
	}
	return s.buffer, nil
}

func (s *portAudioStream) Close() error {
	stopErr := s.stream.Stop()
	if err := s.stream.Close(); err != nil {
		return err
	}
	return stopErr
}
