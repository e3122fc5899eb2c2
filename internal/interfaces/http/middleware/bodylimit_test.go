package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/hooks/order-placed", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusAccepted)
	})

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/order-placed", strings.NewReader(`{"a":1}`))
		assert.Equal(t, http.StatusAccepted, serve(r, req).Code)
	})

	t.Run("declared length too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/order-placed", strings.NewReader(strings.Repeat("x", 32)))
		w := serve(r, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, decodeError(t, w).Code)
	})

	t.Run("unknown length capped while reading", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/order-placed", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1
		w := serve(r, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestBodyLimit_Default(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(0))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}"))
	req.ContentLength = DefaultMaxBodySize + 1
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)
}
