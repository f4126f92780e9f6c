package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lattice-saas/lattice/internal/shared/logger"
)

// RequestLogger logs one line per request.
func RequestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
