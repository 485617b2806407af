package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics returns a handler that reports process runtime statistics.
// Values come straight from the Go runtime so the endpoint works even
// when the telemetry exporter is disabled.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"heap_alloc_mb": m.HeapAlloc / 1024 / 1024,
				"heap_objects":  m.HeapObjects,
				"sys_mb":        m.Sys / 1024 / 1024,
				"gc_runs":       m.NumGC,
				"gc_pause_ms":   float64(m.PauseTotalNs) / 1e6,
			},
		})
	}
}
