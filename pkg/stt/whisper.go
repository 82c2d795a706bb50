package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/echovine/speechscore/pkg/logging"
)

// WhisperOption configures a WhisperClient.
type WhisperOption func(*WhisperClient)

// WithLanguage sets the language hint sent to the server. Defaults to "en".
func WithLanguage(lang string) WhisperOption {
	return func(c *WhisperClient) {
		c.language = lang
	}
}

// WithModel sets the model identifier forwarded to the server. When empty the
// server uses whichever model it was started with.
func WithModel(model string) WhisperOption {
	return func(c *WhisperClient) {
		c.model = model
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) WhisperOption {
	return func(c *WhisperClient) {
		c.httpClient = client
	}
}

// WhisperClient is a Transcriber backed by a running whisper-server, which
// exposes a REST API at POST /inference.
type WhisperClient struct {
	serverURL  string
	language   string
	model      string
	httpClient *http.Client
	logger     logging.Logger
}

// NewWhisperClient creates a client for the whisper.cpp HTTP server at
// serverURL (e.g. "http://localhost:8080").
func NewWhisperClient(serverURL string, opts ...WhisperOption) (*WhisperClient, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("whisper server URL must not be empty")
	}
	c := &WhisperClient{
		serverURL:  serverURL,
		language:   "en",
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger: logging.WithFields(logging.Fields{
			"component": "whisper_client",
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe uploads the audio file and returns the token-level
// transcription.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"response_format": "json",
		"language":        c.language,
		"model":           c.model,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := c.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("submitting transcription request", logging.Fields{
		"endpoint":    endpoint,
		"audio_bytes": len(audio),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %w", err)
	}
	return &result, nil
}
