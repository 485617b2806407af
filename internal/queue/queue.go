// Package queue holds uploaded audio awaiting transcription and moves
// each item through a strictly sequential upload and transcribe
// pipeline.
package queue

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/format"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/observability"
	"github.com/skillsenselab/scribe/internal/store"
	"github.com/skillsenselab/scribe/internal/transcriber"
)

// Status is a queue item's lifecycle state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusUploading    Status = "uploading"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

// Item is one queued audio file.
type Item struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   Status `json:"status"`
	// Error holds the failure reason when Status is error.
	Error string `json:"error,omitempty"`
	// ArtifactPath is the stored audio's path, set once uploaded.
	ArtifactPath string `json:"file_path,omitempty"`
	// TranscriptPath is the stored transcript's path, set on completion.
	TranscriptPath string `json:"transcript_path,omitempty"`
	// Language is the transcription language, set on completion.
	Language string `json:"language,omitempty"`

	data []byte
}

// Controller owns the queue and runs items through the pipeline one at
// a time.
type Controller struct {
	store      *store.Store
	normalizer *format.Normalizer
	dispatcher *transcriber.Dispatcher
	log        *logger.Logger
	metrics    *observability.Pipeline

	// mu guards the backlog and item state. procMu is held for the
	// whole pipeline run so at most one item is in flight process-wide,
	// even across overlapping ProcessAll calls.
	mu     sync.Mutex
	procMu sync.Mutex
	items  []*Item
	byID   map[string]*Item
}

// New creates an empty queue controller.
func New(st *store.Store, norm *format.Normalizer, disp *transcriber.Dispatcher, log *logger.Logger, metrics *observability.Pipeline) *Controller {
	return &Controller{
		store:      st,
		normalizer: norm,
		dispatcher: disp,
		log:        log.WithComponent("queue"),
		metrics:    metrics,
		byID:       make(map[string]*Item),
	}
}

// Enqueue adds one pending item holding the raw upload bytes.
func (c *Controller) Enqueue(name string, data []byte) Item {
	item := &Item{
		ID:       uuid.NewString(),
		Filename: name,
		Status:   StatusPending,
		data:     data,
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	c.byID[item.ID] = item
	c.mu.Unlock()

	c.log.Info("Item queued", map[string]interface{}{
		logger.FieldItemID: item.ID,
		"filename":         name,
		"size":             len(data),
	})
	return snapshot(item)
}

// EnqueueStored adds a pending item whose audio is already persisted
// in the store. Processing skips the upload stage and goes straight to
// transcription.
func (c *Controller) EnqueueStored(name, artifactPath string) Item {
	item := &Item{
		ID:           uuid.NewString(),
		Filename:     name,
		Status:       StatusPending,
		ArtifactPath: artifactPath,
	}

	c.mu.Lock()
	c.items = append(c.items, item)
	c.byID[item.ID] = item
	c.mu.Unlock()

	c.log.Info("Stored item queued", map[string]interface{}{
		logger.FieldItemID: item.ID,
		"filename":         name,
		"artifact":         artifactPath,
	})
	return snapshot(item)
}

// Items returns an ordered snapshot of the queue.
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, snapshot(item))
	}
	return out
}

// Get returns a snapshot of one item.
func (c *Controller) Get(id string) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[id]
	if !ok {
		return Item{}, apperr.NotFound(id)
	}
	return snapshot(item), nil
}

// Remove drops an item regardless of status. Artifacts already written
// stay in the store.
func (c *Controller) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return apperr.NotFound(id)
	}
	delete(c.byID, id)
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return nil
}

// ProcessOne runs a single item through the pipeline. It is a no-op
// for items that are not pending or error; a concurrent call for an
// in-flight item observes its status and returns without side effects.
// At most one pipeline run is in flight at a time, so concurrent calls
// for different items execute one after the other.
func (c *Controller) ProcessOne(ctx context.Context, id string) error {
	c.mu.Lock()
	item, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		return apperr.NotFound(id)
	}
	if item.Status != StatusPending && item.Status != StatusError {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.procMu.Lock()
	defer c.procMu.Unlock()

	// Re-check after acquiring the pipeline slot: another run may have
	// claimed or removed the item while we waited.
	c.mu.Lock()
	if _, ok := c.byID[id]; !ok {
		c.mu.Unlock()
		return apperr.NotFound(id)
	}
	if item.Status != StatusPending && item.Status != StatusError {
		c.mu.Unlock()
		return nil
	}
	item.Status = StatusUploading
	item.Error = ""
	c.mu.Unlock()

	if err := c.process(ctx, item); err != nil {
		c.fail(ctx, item, err)
		return err
	}
	return nil
}

// ProcessAll runs every pending and error item, strictly sequentially
// in insertion order. One item's failure never aborts the rest.
func (c *Controller) ProcessAll(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.items))
	for _, item := range c.items {
		if item.Status == StatusPending || item.Status == StatusError {
			ids = append(ids, item.ID)
		}
	}
	c.mu.Unlock()

	for _, id := range ids {
		if err := c.ProcessOne(ctx, id); err != nil {
			c.log.Warn("Queue item failed", map[string]interface{}{
				logger.FieldItemID: id,
				"error":            err.Error(),
			})
		}
	}
}

// process runs the upload and transcribe stages. The caller has
// already moved the item to uploading.
func (c *Controller) process(ctx context.Context, item *Item) error {
	// Upload stage. A retry of an item that failed after upload skips
	// the persist and reuses the stored artifact.
	if item.ArtifactPath == "" {
		artifact, err := c.store.Persist(item.data, item.Filename)
		if err != nil {
			return err
		}
		c.setArtifact(item, artifact.Path)
	} else {
		c.setStatus(item, StatusTranscribing)
	}

	absPath, err := c.store.AbsolutePath(item.ArtifactPath)
	if err != nil {
		return err
	}

	canonical, converted, err := c.normalizer.ToCanonical(ctx, absPath)
	if err != nil {
		return err
	}
	if converted {
		defer os.Remove(canonical)
	}

	result, err := c.dispatcher.Transcribe(ctx, canonical, "")
	if err != nil {
		return err
	}

	transcriptPath, err := c.dispatcher.Save(result)
	if err != nil {
		return err
	}

	c.mu.Lock()
	item.Status = StatusCompleted
	item.TranscriptPath = transcriptPath
	item.Language = result.Language
	item.data = nil
	c.mu.Unlock()

	c.metrics.QueueItemProcessed(ctx, string(StatusCompleted))
	c.log.Info("Item completed", map[string]interface{}{
		logger.FieldItemID: item.ID,
		"transcript":       transcriptPath,
	})
	return nil
}

func (c *Controller) setArtifact(item *Item, path string) {
	c.mu.Lock()
	item.ArtifactPath = path
	item.Status = StatusTranscribing
	item.data = nil
	c.mu.Unlock()
}

func (c *Controller) setStatus(item *Item, s Status) {
	c.mu.Lock()
	item.Status = s
	c.mu.Unlock()
}

func (c *Controller) fail(ctx context.Context, item *Item, err error) {
	c.mu.Lock()
	item.Status = StatusError
	item.Error = err.Error()
	c.mu.Unlock()

	c.metrics.QueueItemProcessed(ctx, string(StatusError))
	c.metrics.ErrorRecorded(ctx, string(apperr.CodeOf(err)), "queue")
}

func snapshot(item *Item) Item {
	out := *item
	out.data = nil
	return out
}
