package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/common/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's request id, or mints one, into the response
// header and the log fields of the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = strconv.FormatInt(id.New(), 10)
		}

		c.Header(RequestIDHeader, requestID)
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{RequestID: &requestID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
