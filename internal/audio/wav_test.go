package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.wav")
	input := []float32{0, 0.5, -0.5, 1, -1, 0.25}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, input, 16000, 2); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	buf, err := ReadWAV(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.SampleRate() != 16000 || buf.Channels() != 2 {
		t.Fatalf("unexpected format %d Hz / %d ch", buf.SampleRate(), buf.Channels())
	}

	got, _ := buf.Samples()
	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if math.Abs(float64(got[i]-input[i])) > 1.0/16384 {
			t.Errorf("sample %d: expected %f, got %f", i, input[i], got[i])
		}
	}
}

func TestWriteBufferRequiresFinalization(t *testing.T) {
	b := NewBuffer(16000, 1)
	_, _ = b.Lease()

	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := WriteBuffer(f, b); err != ErrNotFinalized {
		t.Fatalf("expected ErrNotFinalized, got %v", err)
	}
}
