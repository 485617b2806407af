package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/format"
	"github.com/skillsenselab/scribe/internal/util"
)

// Upload handles POST /api/upload. The multipart field audio_file is
// validated, persisted, and queued for transcription.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("audio_file")
	if err != nil {
		respondError(c, apperr.InvalidInput("multipart field audio_file is required"))
		return
	}

	maxSize := h.normalizer.MaxFileSize()
	if fileHeader.Size > maxSize {
		respondError(c, apperr.InvalidInput(
			fmt.Sprintf("file exceeds the maximum size of %s", util.FormatSize(maxSize))).
			WithDetail("max_size", maxSize).
			WithDetail("file_size", fileHeader.Size))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}
	if int64(len(data)) > maxSize {
		respondError(c, apperr.InvalidInput(
			fmt.Sprintf("file exceeds the maximum size of %s", util.FormatSize(maxSize))))
		return
	}

	head := data
	if len(head) > format.SniffLen {
		head = head[:format.SniffLen]
	}
	if err := h.normalizer.Validate(fileHeader.Filename, head); err != nil {
		respondError(c, err)
		return
	}

	artifact, err := h.store.Persist(data, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	item := h.queue.EnqueueStored(fileHeader.Filename, artifact.Path)

	c.JSON(http.StatusOK, gin.H{
		"id":        item.ID,
		"filename":  item.Filename,
		"file_path": artifact.Path,
		"file_size": artifact.Size,
	})
}
