package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMount(t *testing.T) {
	engine := gin.New()
	mount(engine, APIPrefix, []Route{
		{http.MethodGet, "/admin/invoice-config", func(c *gin.Context) { c.String(http.StatusOK, "config") }},
		{http.MethodPost, "/invoices/:id/document", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }},
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/invoice-config", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "config", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/inv_9/document", nil))
	assert.Equal(t, "inv_9", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/inv_9/document", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_Routes(t *testing.T) {
	routes := newTestHandlers().Routes()

	got := make([]string, 0, len(routes))
	for _, r := range routes {
		require.NotNil(t, r.Handler, r.Path)
		got = append(got, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"POST /invoices/:id/document",
		"GET /admin/invoice-config",
		"POST /admin/invoice-config",
		"POST /hooks/order-placed",
	}, got)
}
