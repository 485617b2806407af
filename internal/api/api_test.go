package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/api"
	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/device"
	"github.com/skillsenselab/scribe/internal/format"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/queue"
	"github.com/skillsenselab/scribe/internal/recorder"
	"github.com/skillsenselab/scribe/internal/store"
	"github.com/skillsenselab/scribe/internal/transcriber"
)

type fakeRegistry struct {
	devices []device.Device
	err     error
}

func (r *fakeRegistry) List() ([]device.Device, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.devices, nil
}

type fakeStream struct{ chunk []int16 }

func (s *fakeStream) ReadChunk() ([]int16, error) {
	time.Sleep(time.Millisecond)
	out := make([]int16, len(s.chunk))
	copy(out, s.chunk)
	return out, nil
}

func (s *fakeStream) Close() error { return nil }

type fakeCapture struct{}

func (c *fakeCapture) Open(deviceID int, cfg config.AudioConfig) (recorder.CaptureStream, error) {
	return &fakeStream{chunk: []int16{10, -10}}, nil
}

type fakeProvider struct {
	text  string
	calls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *fakeProvider) Transcribe(ctx context.Context, req transcriber.Request) (*transcriber.Response, error) {
	p.calls++
	return &transcriber.Response{Text: p.text, Language: "nl", LanguageProbability: 0.8}, nil
}

type testAPI struct {
	engine   *gin.Engine
	store    *store.Store
	queue    *queue.Controller
	provider *fakeProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewDefault("test")

	st, err := store.New(t.TempDir(), log)
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	formats := config.FormatsConfig{}
	formats.ApplyDefaults()
	norm := format.New(formats, log)

	provider := &fakeProvider{text: "herkende tekst"}
	disp := transcriber.NewDispatcher(provider, st, config.TranscriptionConfig{
		URL:             "http://localhost:1",
		Model:           "base",
		DefaultLanguage: "nl",
		Timeout:         time.Second,
	}, log, nil)

	audioCfg := config.AudioConfig{SampleRate: 16000, Channels: 1, FramesPerBuffer: 64}
	rec := recorder.New(&fakeCapture{}, st, audioCfg, log, nil)
	q := queue.New(st, norm, disp, log, nil)

	engine := gin.New()
	registry := &fakeRegistry{devices: []device.Device{
		{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 2, SampleRate: 44100},
	}}
	api.New(registry, rec, norm, disp, q, st, log).Register(engine)

	return &testAPI{engine: engine, store: st, queue: q, provider: provider}
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return out
}

func TestListDevices(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/devices", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	devices, ok := body["devices"].([]any)
	if !ok || len(devices) != 1 {
		t.Fatalf("expected one device, got %v", body["devices"])
	}
	first := devices[0].(map[string]any)
	if first["name"] != "Built-in Microphone" {
		t.Fatalf("unexpected device %v", first)
	}
}

func TestListDevicesFailure(t *testing.T) {
	a := newTestAPI(t)

	engine := gin.New()
	failing := &fakeRegistry{err: apperr.DeviceEnumeration(errors.New("no audio subsystem"))}
	api.New(failing, nil, nil, nil, nil, a.store, logger.NewDefault("test")).Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if decode(t, w)["error"] == "" {
		t.Fatal("expected error field")
	}
}

func TestRecordLifecycle(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/record/start", strings.NewReader(`{"device_id":0}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["status"] != "recording" {
		t.Fatalf("expected status recording, got %s", w.Body.String())
	}

	// A second start while recording is a conflict, not a new session.
	w = a.do(t, http.MethodPost, "/api/record/start", strings.NewReader(`{"device_id":0}`), "application/json")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "error" || body["error"] == "" {
		t.Fatalf("expected error shape, got %s", w.Body.String())
	}

	time.Sleep(10 * time.Millisecond)

	w = a.do(t, http.MethodPost, "/api/record/stop", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body = decode(t, w)
	if body["status"] != "stopped" {
		t.Fatalf("expected status stopped, got %s", w.Body.String())
	}
	filePath, _ := body["file_path"].(string)
	if filePath == "" {
		t.Fatal("expected file_path in stop response")
	}
	if size, _ := body["file_size"].(float64); size <= 0 {
		t.Fatalf("expected positive file_size, got %v", body["file_size"])
	}

	// The artifact is immediately retrievable.
	w = a.do(t, http.MethodGet, "/api/files/"+filePath, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching %q, got %d", filePath, w.Code)
	}
}

func TestStopWithoutStart(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/record/stop", nil, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "error" || body["error"] == "" {
		t.Fatalf("expected error shape, got %s", w.Body.String())
	}
}

func TestStartRejectsMalformedBody(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/record/start", strings.NewReader(`not json`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestTranscribeStoredAudio(t *testing.T) {
	a := newTestAPI(t)

	artifact, err := a.store.Persist([]byte("RIFF....WAVEdata"), "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := `{"audio_file":"` + artifact.Path + `","language":"auto"}`
	w := a.do(t, http.MethodPost, "/api/transcribe", strings.NewReader(payload), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["text"] != "herkende tekst" {
		t.Fatalf("unexpected text %v", body["text"])
	}
	if body["file_path"] == "" {
		t.Fatal("expected transcript file_path")
	}
	if body["language"] != "nl" {
		t.Fatalf("expected detected language nl, got %v", body["language"])
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	a := newTestAPI(t)
	a.provider.text = ""

	artifact, err := a.store.Persist([]byte("RIFF....WAVEdata"), "silence.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := `{"audio_file":"` + artifact.Path + `","language":"auto"}`
	w := a.do(t, http.MethodPost, "/api/transcribe", strings.NewReader(payload), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["text"] != "" {
		t.Fatalf("expected empty text, got %v", body["text"])
	}
	if body["warning"] == "" {
		t.Fatal("expected warning for silent audio")
	}
	if _, hasPath := body["file_path"]; hasPath {
		t.Fatal("expected no transcript for silent audio")
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/transcribe", strings.NewReader(`{"audio_file":"missing.wav"}`), "application/json")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if decode(t, w)["error"] == "" {
		t.Fatal("expected error field")
	}
}

func multipartUpload(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestUploadQueuesFile(t *testing.T) {
	a := newTestAPI(t)

	data := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 64)...)
	body, contentType := multipartUpload(t, "audio_file", "meeting.wav", data)

	w := a.do(t, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["filename"] != "meeting.wav" {
		t.Fatalf("unexpected filename %v", resp["filename"])
	}
	if resp["file_path"] == "" || resp["file_size"].(float64) != float64(len(data)) {
		t.Fatalf("unexpected upload response %s", w.Body.String())
	}

	items := a.queue.Items()
	if len(items) != 1 || items[0].Status != queue.StatusPending {
		t.Fatalf("expected one pending queue item, got %+v", items)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	a := newTestAPI(t)

	body, contentType := multipartUpload(t, "audio_file", "notes.txt", []byte("plain text content"))
	w := a.do(t, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["error"] == "" {
		t.Fatal("expected error field")
	}
	if len(a.queue.Items()) != 0 {
		t.Fatal("expected nothing queued for a rejected upload")
	}
	if a.provider.calls != 0 {
		t.Fatalf("expected no engine calls for a rejected upload, got %d", a.provider.calls)
	}
}

func TestUploadRequiresField(t *testing.T) {
	a := newTestAPI(t)

	body, contentType := multipartUpload(t, "wrong_field", "clip.wav", []byte("RIFF....WAVE"))
	w := a.do(t, http.MethodPost, "/api/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQueueProcessingEndpoints(t *testing.T) {
	a := newTestAPI(t)

	data := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	body, contentType := multipartUpload(t, "audio_file", "clip.wav", data)
	if w := a.do(t, http.MethodPost, "/api/upload", body, contentType); w.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", w.Code, w.Body.String())
	}

	w := a.do(t, http.MethodPost, "/api/queue/process", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = a.do(t, http.MethodGet, "/api/queue", nil, "")
	resp := decode(t, w)
	items := resp["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["status"] != string(queue.StatusCompleted) {
		t.Fatalf("expected completed, got %v (%v)", item["status"], item["error"])
	}

	id := item["id"].(string)
	if w := a.do(t, http.MethodDelete, "/api/queue/"+id, nil, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting item, got %d", w.Code)
	}
	if w := a.do(t, http.MethodDelete, "/api/queue/"+id, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", w.Code)
	}
}

func TestLanguagesEndpoint(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/languages", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	langs := decode(t, w)["languages"].(map[string]any)
	if langs["nl-NL"] != "Nederlands" {
		t.Fatalf("unexpected language table %v", langs)
	}
	if _, ok := langs["auto"]; !ok {
		t.Fatal("expected auto entry")
	}
}

func TestFormatsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/formats", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	formats := body["formats"].([]any)
	if len(formats) == 0 {
		t.Fatal("expected non-empty format list")
	}
	if body["max_size_formatted"] != "16 MB" {
		t.Fatalf("expected '16 MB', got %v", body["max_size_formatted"])
	}
}

func TestServeFileNotFound(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/files/missing.wav", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if decode(t, w)["error"] == "" {
		t.Fatal("expected error field")
	}
}
