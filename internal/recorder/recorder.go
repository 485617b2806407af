// Package recorder owns the single allowed in-flight microphone capture
// session. Exclusivity is enforced by one mutex around the start/stop
// transition rather than left to callers; concurrent captures on the
// same device are undefined at the driver boundary.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/observability"
	"github.com/skillsenselab/scribe/internal/store"
)

// State is the controller's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// Status summarizes the controller's current state.
type Status struct {
	State     State     `json:"state"`
	DeviceID  int       `json:"device_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// StopResult is returned when a recording is stopped and flushed.
type StopResult struct {
	Path string `json:"file_path"`
	Size int64  `json:"file_size"`
}

// Controller manages the exclusive recording session.
type Controller struct {
	capture CaptureDevice
	store   *store.Store
	cfg     config.AudioConfig
	log     *logger.Logger
	metrics *observability.Pipeline

	mu      sync.Mutex
	current *session
}

type session struct {
	deviceID  int
	startedAt time.Time
	stream    CaptureStream

	stop chan struct{}
	done chan struct{}

	// frames and captureErr are written only by the capture goroutine
	// and read only after done is closed.
	frames     []int16
	captureErr error
}

// New creates a recording controller.
func New(capture CaptureDevice, st *store.Store, cfg config.AudioConfig, log *logger.Logger, metrics *observability.Pipeline) *Controller {
	return &Controller{
		capture: capture,
		store:   st,
		cfg:     cfg,
		log:     log.WithComponent("recorder"),
		metrics: metrics,
	}
}

// Start opens the device and begins capturing on a background goroutine.
// It returns immediately once capture is running. A second Start while
// recording fails with ALREADY_RECORDING and leaves the original session
// untouched.
func (c *Controller) Start(ctx context.Context, deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return apperr.AlreadyRecording()
	}

	stream, err := c.capture.Open(deviceID, c.cfg)
	if err != nil {
		return apperr.DeviceUnavailable(deviceID, err)
	}

	sess := &session{
		deviceID:  deviceID,
		startedAt: time.Now(),
		stream:    stream,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.current = sess

	go c.captureLoop(sess)

	c.metrics.RecordingStarted(ctx)
	c.log.Info("Recording started", map[string]interface{}{
		logger.FieldDevice: deviceID,
	})
	return nil
}

// Stop halts capture, flushes the buffered samples into a WAV artifact,
// and returns the artifact's path and size. Stop while idle fails with
// NOT_RECORDING and produces no artifact.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	// The stream must be fully drained and closed before the controller
	// reads as idle, or a racing Start could open the device while the
	// old stream is still live. The teardown therefore happens under mu;
	// encoding and persisting the artifact do not need it.
	c.mu.Lock()
	sess := c.current
	if sess == nil {
		c.mu.Unlock()
		return StopResult{}, apperr.NotRecording()
	}

	close(sess.stop)
	<-sess.done
	if err := sess.stream.Close(); err != nil {
		c.log.Warn("Capture stream did not close cleanly", logger.ErrorFields("close", err))
	}
	c.current = nil
	c.mu.Unlock()

	if sess.captureErr != nil && len(sess.frames) == 0 {
		c.metrics.RecordingFailed(ctx)
		return StopResult{}, apperr.DeviceUnavailable(sess.deviceID, sess.captureErr)
	}

	data, err := encodeWAV(sess.frames, c.cfg.SampleRate, c.cfg.Channels)
	if err != nil {
		c.metrics.RecordingFailed(ctx)
		return StopResult{}, apperr.Internal(err)
	}

	name := fmt.Sprintf("recording_%s.wav", sess.startedAt.Format("20060102_150405"))
	artifact, err := c.store.Persist(data, name)
	if err != nil {
		c.metrics.RecordingFailed(ctx)
		return StopResult{}, apperr.Internal(err)
	}

	c.metrics.RecordingCompleted(ctx, time.Since(sess.startedAt))
	c.log.Info("Recording stopped", map[string]interface{}{
		logger.FieldPath: artifact.Path,
		"size":           artifact.Size,
		"duration":       time.Since(sess.startedAt).Round(time.Millisecond).String(),
	})
	return StopResult{Path: artifact.Path, Size: artifact.Size}, nil
}

// Status reports the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Status{State: StateIdle}
	}
	return Status{
		State:     StateRecording,
		DeviceID:  c.current.deviceID,
		StartedAt: c.current.startedAt,
	}
}

// captureLoop reads chunks until the session is stopped or the stream
// errors. It owns sess.frames exclusively until done is closed.
func (c *Controller) captureLoop(sess *session) {
	defer close(sess.done)
	for {
		select {
		case <-sess.stop:
			return
		default:
		}

		chunk, err := sess.stream.ReadChunk()
		if err != nil {
			sess.captureErr = err
			c.log.Error("Capture read failed", logger.ErrorFields("read", err))
			return
		}
		sess.frames = append(sess.frames, chunk...)
	}
}
