package middleware

import (
	"net/http"

	"example.com/loomtrack/services/supplychain/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Requests returns a gin middleware feeding the request error rate
func Requests(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if m == nil {
			return
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			m.RecordError("http_requests")
		} else {
			m.RecordSuccess("http_requests")
		}
	}
}
