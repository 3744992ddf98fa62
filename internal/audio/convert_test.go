package audio

import "testing"

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	got := downmixInterleaved(input, 1, len(input))

	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %f, got %f", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	frames := 4
	input := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	expected := []float32{
		0.5, 0.5, 0.5, 0.0,
	}

	got := downmixInterleaved(input, 2, frames)
	if len(got) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	frames := 2
	input := []float32{
		1, 3, 5,
		2, 4, 6,
	}

	expected := []float32{3, 4}

	got := downmixInterleaved(input, 3, frames)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestMonoPassesThroughSingleChannel(t *testing.T) {
	input := []float32{0.25, -0.25}
	got := Mono(input, 1)
	if len(got) != 2 || got[0] != 0.25 || got[1] != -0.25 {
		t.Fatalf("unexpected mono output %v", got)
	}
}

func TestMonoDropsTrailingPartialFrame(t *testing.T) {
	got := Mono([]float32{1, 1, 0.5}, 2)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected a single full frame, got %v", got)
	}
}

func TestResampleHalvesLength(t *testing.T) {
	input := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	got := Resample(input, 32000, 16000)

	expected := []float32{0, 2, 4, 6}
	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("sample %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestResampleInterpolates(t *testing.T) {
	got := Resample([]float32{0, 1}, 1, 2)
	expected := []float32{0, 0.5, 1, 1}
	if len(got) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("sample %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestResampleSameRateCopies(t *testing.T) {
	input := []float32{0.1, 0.2}
	got := Resample(input, 16000, 16000)
	if &got[0] == &input[0] {
		t.Fatal("expected a copy when rates match")
	}
}
