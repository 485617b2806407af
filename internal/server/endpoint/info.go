package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/internal/version"
)

var startTime = time.Now()

// Info returns a handler that reports service build and runtime info.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    version.Version,
			"commit":     version.Commit,
			"build_time": version.BuildTime,
			"go_version": runtime.Version(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}
