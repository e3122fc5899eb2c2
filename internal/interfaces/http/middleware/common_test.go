package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates when missing", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("reuses caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-abc")
		w := serve(r, req)
		assert.Equal(t, "req-abc", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-abc", w.Body.String())
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", MaxRequestIDLength+1))
		w := serve(r, req)
		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestCORS(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		r := gin.New()
		r.Use(CORS(cfg))
		r.POST("/api/v1/invoices/:id/document", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	request := func(method string) *http.Request {
		req := httptest.NewRequest(method, "/api/v1/invoices/inv_1/document", nil)
		req.Header.Set("Origin", "https://shop.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return req
	}

	t.Run("no origins configured", func(t *testing.T) {
		w := serve(newRouter(CORSConfig{}), request(http.MethodPost))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		w := serve(newRouter(CORSConfig{AllowOrigins: []string{"*"}}), request(http.MethodPost))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), InvoiceCacheHeader)
	})

	t.Run("listed origin preflight", func(t *testing.T) {
		r := newRouter(CORSConfig{AllowOrigins: []string{"https://shop.example.org"}})
		w := serve(r, request(http.MethodOptions))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://shop.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		r := newRouter(CORSConfig{AllowOrigins: []string{"https://admin.example.org"}})
		w := serve(r, request(http.MethodPost))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestNoRoute(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.NoRoute(NoRoute())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-404")
	w := serve(r, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	errInfo := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, errInfo.Code)
	assert.Equal(t, "req-404", errInfo.RequestID)
}
