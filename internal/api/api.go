// Package api exposes the recording and transcription pipeline over a
// JSON HTTP surface.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/device"
	"github.com/skillsenselab/scribe/internal/format"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/queue"
	"github.com/skillsenselab/scribe/internal/recorder"
	"github.com/skillsenselab/scribe/internal/store"
	"github.com/skillsenselab/scribe/internal/transcriber"
)

// Handler bundles the pipeline components behind the HTTP surface.
type Handler struct {
	devices    device.Registry
	recorder   *recorder.Controller
	normalizer *format.Normalizer
	dispatcher *transcriber.Dispatcher
	queue      *queue.Controller
	store      *store.Store
	log        *logger.Logger
}

// New creates the API handler.
func New(
	devices device.Registry,
	rec *recorder.Controller,
	norm *format.Normalizer,
	disp *transcriber.Dispatcher,
	q *queue.Controller,
	st *store.Store,
	log *logger.Logger,
) *Handler {
	return &Handler{
		devices:    devices,
		recorder:   rec,
		normalizer: norm,
		dispatcher: disp,
		queue:      q,
		store:      st,
		log:        log.WithComponent("api"),
	}
}

// Register mounts the API routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	api := engine.Group("/api")

	api.GET("/devices", h.ListDevices)
	api.GET("/languages", h.ListLanguages)
	api.GET("/formats", h.ListFormats)

	api.POST("/record/start", h.StartRecording)
	api.POST("/record/stop", h.StopRecording)
	api.GET("/record/status", h.RecordingStatus)

	api.POST("/transcribe", h.Transcribe)
	api.POST("/upload", h.Upload)

	api.GET("/queue", h.ListQueue)
	api.POST("/queue/process", h.ProcessQueue)
	api.POST("/queue/:id/process", h.ProcessQueueItem)
	api.DELETE("/queue/:id", h.RemoveQueueItem)

	api.GET("/files/:name", h.ServeFile)
}
