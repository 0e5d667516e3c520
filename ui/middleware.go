package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// formOverhead leaves room for multipart boundaries and small form fields
const formOverhead = 1 << 20

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(s.requestTiming())
}

// limitBody rejects request bodies larger than n bytes
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// requestTiming logs slow or failed requests at debug/warn level
func (s *Server) requestTiming() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			s.logger.Warn("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		s.logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}
