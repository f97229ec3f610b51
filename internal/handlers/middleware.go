package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// requestMetrics reports every request by route template, so path parameters do not
// create new series.
func (h *Handler) requestMetrics(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = unmatchedRoute
	}
	h.requests.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
}
