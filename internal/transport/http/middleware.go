package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggerMiddleware logs each status API request. A WebSocket upgrade is logged
// when the bridged session ends, so its latency is the session length.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Debug()
		msg := "http request"
		switch {
		case status == http.StatusSwitchingProtocols:
			msg = "ws session ended"
		case status >= http.StatusInternalServerError:
			ev = logger.Warn()
		}

		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("remote", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg(msg)
	}
}
