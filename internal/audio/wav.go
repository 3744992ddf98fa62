package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// EncodeWAV writes interleaved samples as 16-bit PCM.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WriteBuffer encodes a finalized buffer.
func WriteBuffer(w io.WriteSeeker, b *Buffer) error {
	samples, err := b.Samples()
	if err != nil {
		return err
	}
	return EncodeWAV(w, samples, b.SampleRate(), b.Channels())
}

// ReadWAV decodes a PCM WAV stream into a finalized buffer.
func ReadWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid wav file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}

	if dec.BitDepth == 0 || dec.NumChans == 0 {
		return nil, errors.New("wav header is missing format information")
	}
	scale := float32(int64(1) << (dec.BitDepth - 1))
	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float32(v) / scale
	}

	return FromSamples(int(dec.SampleRate), int(dec.NumChans), samples), nil
}
