package transcriber

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
	"strings"
	"time"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/logger"
)

// Request describes a single transcription call.
type Request struct {
	// AudioPath is the absolute path of canonical-form audio.
	AudioPath string
	// Language is the engine language code, empty for auto-detect.
	Language string
	// Model is the model to request.
	Model string
}

// Segment is one timed span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Response is the raw engine output for one audio file.
type Response struct {
	Text                string    `json:"text"`
	Segments            []Segment `json:"segments,omitempty"`
	Language            string    `json:"language,omitempty"`
	LanguageProbability float64   `json:"language_probability,omitempty"`
}

// Provider is a transcription engine.
type Provider interface {
	// Name identifies the provider in logs and diagnostics.
	Name() string
	// IsAvailable reports whether the provider can accept work.
	IsAvailable(ctx context.Context) bool
	// Transcribe runs one transcription call.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// WhisperProvider talks to a whisper-compatible HTTP sidecar.
type WhisperProvider struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewWhisperProvider creates a provider for the configured sidecar.
func NewWhisperProvider(cfg config.TranscriptionConfig, log *logger.Logger) *WhisperProvider {
	return &WhisperProvider{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.WithComponent("whisper"),
	}
}

func (p *WhisperProvider) Name() string {
	return "whisper"
}

// IsAvailable probes the sidecar's health endpoint.
func (p *WhisperProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Transcribe uploads the audio as multipart form data and decodes the
// engine's JSON response.
func (p *WhisperProvider) Transcribe(ctx context.Context, req Request) (*Response, error) {
	audio, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, apperr.TranscriptionService(fmt.Errorf("open audio: %w", err))
	}
	defer audio.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, apperr.TranscriptionService(err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, apperr.TranscriptionService(fmt.Errorf("read audio: %w", err))
	}
	if req.Model != "" {
		writer.WriteField("model", req.Model)
	}
	if req.Language != "" {
		writer.WriteField("language", req.Language)
	}
	if err := writer.Close(); err != nil {
		return nil, apperr.TranscriptionService(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, apperr.TranscriptionService(err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperr.TranscriptionService(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.TranscriptionService(
			fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.TranscriptionService(fmt.Errorf("decode engine response: %w", err))
	}

	p.log.Debug("Transcription call completed", map[string]interface{}{
		"file":        filepath.Base(req.AudioPath),
		"language":    out.Language,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &out, nil
}
