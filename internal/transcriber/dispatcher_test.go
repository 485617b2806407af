package transcriber_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/store"
	"github.com/skillsenselab/scribe/internal/transcriber"
)

type fakeProvider struct {
	resp    *transcriber.Response
	err     error
	calls   int
	lastReq transcriber.Request
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *fakeProvider) Transcribe(ctx context.Context, req transcriber.Request) (*transcriber.Response, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

func newDispatcher(t *testing.T, provider transcriber.Provider) (*transcriber.Dispatcher, *store.Store) {
	t.Helper()
	log := logger.NewDefault("test")
	st, err := store.New(t.TempDir(), log)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	cfg := config.TranscriptionConfig{
		URL:             "http://localhost:1",
		Model:           "base",
		DefaultLanguage: "nl",
		Timeout:         time.Second,
	}
	return transcriber.NewDispatcher(provider, st, cfg, log, nil), st
}

func TestTranscribeExplicitLanguage(t *testing.T) {
	provider := &fakeProvider{resp: &transcriber.Response{Text: "hallo wereld"}}
	d, _ := newDispatcher(t, provider)

	result, err := d.Transcribe(context.Background(), "/tmp/clip.wav", "de-DE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastReq.Language != "de" {
		t.Fatalf("expected engine code 'de', got %q", provider.lastReq.Language)
	}
	if result.Language != "de-DE" {
		t.Fatalf("expected language 'de-DE', got %q", result.Language)
	}
	if result.LanguageProbability != 0 {
		t.Fatalf("expected no detection confidence for an explicit hint, got %v", result.LanguageProbability)
	}
	if result.Text != "hallo wereld" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestTranscribeAutoDetectCarriesConfidence(t *testing.T) {
	provider := &fakeProvider{resp: &transcriber.Response{
		Text:                "goedemorgen",
		Language:            "nl",
		LanguageProbability: 0.93,
	}}
	d, _ := newDispatcher(t, provider)

	result, err := d.Transcribe(context.Background(), "/tmp/clip.wav", "auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastReq.Language != "" {
		t.Fatalf("expected empty engine language for auto, got %q", provider.lastReq.Language)
	}
	if result.Language != "nl" {
		t.Fatalf("expected detected language 'nl', got %q", result.Language)
	}
	if result.LanguageProbability != 0.93 {
		t.Fatalf("expected confidence 0.93, got %v", result.LanguageProbability)
	}
}

func TestTranscribeUnknownHintFallsBack(t *testing.T) {
	provider := &fakeProvider{resp: &transcriber.Response{Text: "tekst"}}
	d, _ := newDispatcher(t, provider)

	result, err := d.Transcribe(context.Background(), "/tmp/clip.wav", "xx-XX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.lastReq.Language != "nl" {
		t.Fatalf("expected fallback engine code 'nl', got %q", provider.lastReq.Language)
	}
	if result.Language != "nl" {
		t.Fatalf("expected fallback language 'nl', got %q", result.Language)
	}
}

func TestTranscribeNoSpeechIsNotAnError(t *testing.T) {
	provider := &fakeProvider{resp: &transcriber.Response{Text: "   "}}
	d, _ := newDispatcher(t, provider)

	result, err := d.Transcribe(context.Background(), "/tmp/silence.wav", "auto")
	if err != nil {
		t.Fatalf("expected no error for silent audio, got %v", err)
	}
	if result.Text != "" {
		t.Fatalf("expected empty text, got %q", result.Text)
	}
	if result.Warning == "" {
		t.Fatal("expected a no-speech warning")
	}
}

func TestTranscribeProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: apperr.TranscriptionService(errors.New("connection refused"))}
	d, _ := newDispatcher(t, provider)

	_, err := d.Transcribe(context.Background(), "/tmp/clip.wav", "nl-NL")
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperr.ErrCodeTranscriptionService {
		t.Fatalf("expected TRANSCRIPTION_SERVICE, got %v", err)
	}
	if !appErr.Retryable {
		t.Fatal("expected transcription failures to be retryable")
	}
}

func TestTranscribeWrapsPlainErrors(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	d, _ := newDispatcher(t, provider)

	_, err := d.Transcribe(context.Background(), "/tmp/clip.wav", "nl-NL")
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperr.ErrCodeTranscriptionService {
		t.Fatalf("expected TRANSCRIPTION_SERVICE, got %v", err)
	}
}

func TestSaveWritesFreshTranscript(t *testing.T) {
	provider := &fakeProvider{}
	d, st := newDispatcher(t, provider)

	first, err := d.Save(&transcriber.Result{Text: "eerste"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := d.Save(&transcriber.Result{Text: "tweede"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Ext(first) != ".txt" {
		t.Fatalf("expected .txt transcript, got %q", first)
	}
	if first == second {
		t.Fatalf("expected distinct transcript files, both got %q", first)
	}
	if _, err := st.Stat(second); err != nil {
		t.Fatalf("transcript not found: %v", err)
	}
}

func TestLanguagesTable(t *testing.T) {
	langs := transcriber.Languages()

	if _, ok := langs["auto"]; !ok {
		t.Fatal("expected auto sentinel in language table")
	}
	if got := langs["nl-NL"]; got != "Nederlands" {
		t.Fatalf("expected 'Nederlands' for nl-NL, got %q", got)
	}
	if len(langs) != 14 {
		t.Fatalf("expected 14 entries, got %d", len(langs))
	}

	for _, tag := range []string{"auto", "nl-NL", "en-US", "ja-JP"} {
		if !transcriber.IsSupported(tag) {
			t.Errorf("expected %q to be supported", tag)
		}
	}
	for _, tag := range []string{"", "nl", "xx-XX", strings.ToUpper("auto")} {
		if transcriber.IsSupported(tag) {
			t.Errorf("expected %q to be unsupported", tag)
		}
	}
}
