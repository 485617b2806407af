package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/util"
)

// HeaderRequestID is the correlation header honored on inbound requests
// and echoed on every response.
const HeaderRequestID = "X-Request-Id"

// maxRequestIDLen caps caller-supplied correlation ids. Anything longer
// is replaced rather than truncated, so a stored id is always whole.
const maxRequestIDLen = 64

// RequestID tags every request with a correlation id. A well-formed
// inbound id is reused so upstream callers can trace across services,
// otherwise a fresh UUID is minted.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := util.SanitizeString(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.New().String()
		}
		c.Set(logger.FieldRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
