package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/validation"
)

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.devices.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

type startRecordingRequest struct {
	DeviceID int `json:"device_id" validate:"gte=0"`
}

// StartRecording handles POST /api/record/start.
func (h *Handler) StartRecording(c *gin.Context) {
	var req startRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatusError(c, apperr.InvalidInput("request body must be JSON with a device_id field"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		respondStatusError(c, err)
		return
	}

	if err := h.recorder.Start(c.Request.Context(), req.DeviceID); err != nil {
		respondStatusError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recording"})
}

// StopRecording handles POST /api/record/stop.
func (h *Handler) StopRecording(c *gin.Context) {
	result, err := h.recorder.Stop(c.Request.Context())
	if err != nil {
		respondStatusError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "stopped",
		"file_path": result.Path,
		"file_size": result.Size,
	})
}

// RecordingStatus handles GET /api/record/status.
func (h *Handler) RecordingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.recorder.Status())
}
