package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studiostory/studiostory-backend/internal/platform/logger"
)

func requestLogger(logg *logger.Logger) gin.HandlerFunc {
	log := logg.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// SSE streams hold the connection open; logging them on close only
		// adds noise.
		if c.Writer.Header().Get("Content-Type") == "text/event-stream" {
			return
		}

		fields := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			log.Error("Request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		if c.Writer.Status() >= 500 {
			log.Error("Request errored", fields...)
			return
		}
		log.Debug("Request", fields...)
	}
}
