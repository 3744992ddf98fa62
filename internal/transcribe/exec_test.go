package transcribe

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestExecRecognizerArgs(t *testing.T) {
	rec, err := NewExecRecognizer(`whisper-cli --threads 4 --prompt "会議 の 記録"`, "small", zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	er := rec.(*execRecognizer)

	if er.cmd[0] != "whisper-cli" {
		t.Fatalf("unexpected binary %q", er.cmd[0])
	}
	got := strings.Join(er.args("/tmp/a.wav", "ja"), "|")
	want := "--threads|4|--prompt|会議 の 記録|--audio|/tmp/a.wav|--model|small|--language|ja"
	if got != want {
		t.Fatalf("expected args %q, got %q", want, got)
	}
}

func TestExecRecognizerEmptyCommand(t *testing.T) {
	if _, err := NewExecRecognizer("   ", "base", zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an empty command")
	}
}

func TestExecRecognizerMissingBinary(t *testing.T) {
	rec, err := NewExecRecognizer("recordnote-no-such-binary", "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Load(context.Background()); err == nil {
		t.Fatal("expected load to fail for a missing binary")
	}
}

func TestExecRecognizerRunsCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	script := `sh -c 'echo "{\"language\":\"ja\",\"segments\":[{\"start\":0,\"end\":1.5,\"text\":\"テスト\"}]}"'`
	rec, err := NewExecRecognizer(script, "", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	segs, err := rec.Recognize(context.Background(), Request{
		Samples:    make([]float32, 100),
		SampleRate: 100,
		Channels:   1,
		Language:   "ja",
	})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "テスト" || segs[0].End != 1.5 {
		t.Fatalf("unexpected segments %+v", segs)
	}
}

func TestDecodeResponseRejectsGarbage(t *testing.T) {
	if _, err := decodeResponse([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
