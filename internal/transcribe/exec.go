package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/petems/recordnote/internal/audio"
	"github.com/rs/zerolog"
)

type execRecognizer struct {
	cmd   []string
	model string
	log   zerolog.Logger
	mu    sync.Mutex
}

// recognizerResponse is the JSON shape shared by the exec and http backends.
type recognizerResponse struct {
	Text     string       `json:"text"`
	Language string       `json:"language"`
	Segments []RawSegment `json:"segments"`
}

// NewExecRecognizer runs an external command per transcription. The command
// receives --audio <wav> --model <model> --language <lang> and must print
// {"language": "...", "segments": [{"start": 0, "end": 1.5, "text": "..."}]}.
func NewExecRecognizer(command, model string, log zerolog.Logger) (Recognizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse transcription command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("transcription command is empty")
	}
	return &execRecognizer{cmd: args, model: model, log: log}, nil
}

func (r *execRecognizer) Load(ctx context.Context) error {
	if _, err := exec.LookPath(r.cmd[0]); err != nil {
		return fmt.Errorf("transcription command not found: %w", err)
	}
	return nil
}

func (r *execRecognizer) Recognize(ctx context.Context, req Request) ([]RawSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, err := writeTempWAV(req)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	command := exec.CommandContext(ctx, r.cmd[0], r.args(path, req.Language)...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	r.log.Debug().Strs("args", command.Args).Msg("Running transcription command")
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("transcription command failed: %w: %s", err, stderr.String())
	}
	return decodeResponse(stdout.Bytes())
}

func (r *execRecognizer) args(audioPath, language string) []string {
	args := append([]string{}, r.cmd[1:]...)
	args = append(args, "--audio", audioPath)
	if r.model != "" {
		args = append(args, "--model", r.model)
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}

func (r *execRecognizer) Close() error { return nil }

func writeTempWAV(req Request) (string, error) {
	file, err := os.CreateTemp("", "recordnote_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer file.Close()

	if err := audio.EncodeWAV(file, req.Samples, req.SampleRate, req.Channels); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

func decodeResponse(data []byte) ([]RawSegment, error) {
	var resp recognizerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return resp.Segments, nil
}
