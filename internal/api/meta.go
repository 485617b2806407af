package api

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/transcriber"
	"github.com/skillsenselab/scribe/internal/util"
)

// ListLanguages handles GET /api/languages.
func (h *Handler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": transcriber.Languages()})
}

// ListFormats handles GET /api/formats.
func (h *Handler) ListFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":            h.normalizer.Extensions(),
		"max_size_formatted": util.FormatSize(h.normalizer.MaxFileSize()),
	})
}

// ServeFile handles GET /api/files/:name, streaming a stored artifact
// for playback or download.
func (h *Handler) ServeFile(c *gin.Context) {
	name := c.Param("name")

	artifact, err := h.store.Stat(name)
	if err != nil {
		respondError(c, err)
		return
	}
	reader, err := h.store.Resolve(name)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, artifact.Size, contentType, reader, nil)
}
