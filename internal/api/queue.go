package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListQueue handles GET /api/queue.
func (h *Handler) ListQueue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.queue.Items()})
}

// ProcessQueue handles POST /api/queue/process. Every pending and
// error item runs through the pipeline before the response returns.
func (h *Handler) ProcessQueue(c *gin.Context) {
	h.queue.ProcessAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": h.queue.Items()})
}

// ProcessQueueItem handles POST /api/queue/:id/process.
func (h *Handler) ProcessQueueItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.queue.ProcessOne(c.Request.Context(), id); err != nil {
		// The item snapshot carries the failure; expose both.
		if item, getErr := h.queue.Get(id); getErr == nil {
			c.JSON(http.StatusOK, gin.H{"item": item})
			return
		}
		respondError(c, err)
		return
	}

	item, err := h.queue.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// RemoveQueueItem handles DELETE /api/queue/:id.
func (h *Handler) RemoveQueueItem(c *gin.Context) {
	if err := h.queue.Remove(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}
