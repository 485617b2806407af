// Package transcriber dispatches audio to a transcription engine and
// persists the resulting text.
package transcriber

import (
	"context"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/observability"
	"github.com/skillsenselab/scribe/internal/store"
)

// NoSpeechWarning is returned on a successful transcription of audio
// the engine found no speech in.
const NoSpeechWarning = "Geen spraak gedetecteerd in de opname"

// Result is a completed transcription.
type Result struct {
	// Text is the recognized text, possibly empty.
	Text string `json:"text"`
	// Language is the language used, detected or requested.
	Language string `json:"language,omitempty"`
	// LanguageProbability is the detection confidence in [0,1].
	// Present only when the engine auto-detected the language.
	LanguageProbability float64 `json:"language_probability,omitempty"`
	// Warning is set when the result is usable but degraded, such as
	// no speech detected.
	Warning string `json:"warning,omitempty"`
	// Segments are the timed spans, when the engine provides them.
	Segments []Segment `json:"segments,omitempty"`
}

// Dispatcher routes transcription requests to a provider and stores
// transcripts as artifacts.
type Dispatcher struct {
	provider Provider
	store    *store.Store
	cfg      config.TranscriptionConfig
	log      *logger.Logger
	metrics  *observability.Pipeline
}

// NewDispatcher creates a dispatcher backed by the given provider.
func NewDispatcher(provider Provider, st *store.Store, cfg config.TranscriptionConfig, log *logger.Logger, metrics *observability.Pipeline) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		store:    st,
		cfg:      cfg,
		log:      log.WithComponent("transcriber"),
		metrics:  metrics,
	}
}

// Transcribe runs one transcription of canonical-form audio at an
// absolute path. languageHint is a BCP 47 tag, "auto", or empty; an
// unknown hint falls back to the configured default language.
func (d *Dispatcher) Transcribe(ctx context.Context, audioPath, languageHint string) (*Result, error) {
	hint := d.resolveHint(languageHint)

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := d.provider.Transcribe(ctx, Request{
		AudioPath: audioPath,
		Language:  engineCode(hint),
		Model:     d.cfg.Model,
	})
	if err != nil {
		d.metrics.TranscriptionDispatched(ctx, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, apperr.TranscriptionService(ctx.Err())
		}
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.TranscriptionService(err)
	}

	result := &Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: hint,
		Segments: resp.Segments,
	}
	if hint == AutoLanguage {
		result.Language = resp.Language
		result.LanguageProbability = resp.LanguageProbability
	}
	if result.Text == "" {
		result.Warning = NoSpeechWarning
	}

	d.metrics.TranscriptionDispatched(ctx, "success", time.Since(start))
	d.log.Info("Transcription completed", map[string]interface{}{
		"language": result.Language,
		"chars":    len(result.Text),
		"warning":  result.Warning != "",
	})
	return result, nil
}

// Save persists the result text as a timestamped transcript artifact
// and returns its store-relative path.
func (d *Dispatcher) Save(result *Result) (string, error) {
	name := "transcript_" + time.Now().Format("20060102_150405") + ".txt"
	artifact, err := d.store.Persist([]byte(result.Text), name)
	if err != nil {
		return "", err
	}
	return artifact.Path, nil
}

// Provider returns the backing provider, for availability checks.
func (d *Dispatcher) Provider() Provider {
	return d.provider
}

func (d *Dispatcher) resolveHint(languageHint string) string {
	if languageHint == "" {
		return d.cfg.DefaultLanguage
	}
	if !IsSupported(languageHint) {
		d.log.Warn("Unknown language hint, falling back to default", map[string]interface{}{
			"hint":    languageHint,
			"default": d.cfg.DefaultLanguage,
		})
		return d.cfg.DefaultLanguage
	}
	return languageHint
}
