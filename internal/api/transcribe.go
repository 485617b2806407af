package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/validation"
)

type transcribeRequest struct {
	AudioFile string `json:"audio_file" validate:"required"`
	Language  string `json:"language"`
}

// Transcribe handles POST /api/transcribe. The audio_file is a path
// relative to the artifact store, typically the result of a stop or
// upload call.
func (h *Handler) Transcribe(c *gin.Context) {
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("request body must be JSON with an audio_file field"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.store.Stat(req.AudioFile); err != nil {
		respondError(c, err)
		return
	}
	absPath, err := h.store.AbsolutePath(req.AudioFile)
	if err != nil {
		respondError(c, err)
		return
	}

	canonical, converted, err := h.normalizer.ToCanonical(c.Request.Context(), absPath)
	if err != nil {
		respondError(c, err)
		return
	}
	if converted {
		defer os.Remove(canonical)
	}

	result, err := h.dispatcher.Transcribe(c.Request.Context(), canonical, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Text == "" {
		c.JSON(http.StatusOK, gin.H{"text": "", "warning": result.Warning})
		return
	}

	transcriptPath, err := h.dispatcher.Save(result)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"text":      result.Text,
		"file_path": transcriptPath,
		"language":  result.Language,
	}
	if result.LanguageProbability > 0 {
		body["language_probability"] = result.LanguageProbability
	}
	c.JSON(http.StatusOK, body)
}
