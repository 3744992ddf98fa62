package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/petems/recordnote/internal/apperr"
	"github.com/rs/zerolog"
)

const defaultSidecarURL = "http://localhost:8387"

type httpRecognizer struct {
	url    string
	model  string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPRecognizer talks to a faster-whisper style sidecar exposing
// GET /health and POST /transcribe.
func NewHTTPRecognizer(url, model string, log zerolog.Logger) Recognizer {
	if url == "" {
		url = defaultSidecarURL
	}
	return &httpRecognizer{
		url:    strings.TrimRight(url, "/"),
		model:  model,
		client: &http.Client{},
		log:    log,
	}
}

func (h *httpRecognizer) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("whisper sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whisper sidecar unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

func (h *httpRecognizer) Recognize(ctx context.Context, req Request) ([]RawSegment, error) {
	path, err := writeTempWAV(req)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	audioData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}
	if h.model != "" {
		_ = writer.WriteField("model", h.model)
	}
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Wrap(apperr.ModelUnavailable, err, "whisper sidecar request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper error (status %d): %s", resp.StatusCode, string(body))
	}

	h.log.Debug().Int("bytes", len(body)).Msg("Sidecar responded")
	return decodeResponse(body)
}

func (h *httpRecognizer) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
