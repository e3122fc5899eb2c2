package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize is used when no limit is configured (2 MiB)
const DefaultMaxBodySize int64 = 2 << 20

// BodyLimit rejects requests whose declared body exceeds maxBytes and caps
// the reader for the rest, so handlers binding JSON fail past the limit
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", maxBytes))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
