package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-tracker/pkg/utils"
)

// DefaultMaxRequestSize caps JSON bodies at 10 KiB.
const DefaultMaxRequestSize = 10 << 10

func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}
	message := fmt.Sprintf("Request body too large, the limit is %d bytes", maxSize)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, message)
			c.Abort()
			return
		}

		// Chunked bodies have no declared length; cap what the handler can read.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
