package middleware

import (
	"net/http"

	"github.com/billkit/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodySize caps request bodies at 1 MiB. Billing API
// payloads are small JSON documents; anything larger is a client bug.
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size.
// A non-positive maxBytes falls back to DefaultMaxBodySize.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
