// Package router assembles the gin engine of the invoice API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIPrefix is the base path of the versioned API
const APIPrefix = "/api/v1"

// Route is one endpoint of the invoice API, relative to APIPrefix
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Routes lists the API endpoints
func (h Handlers) Routes() []Route {
	return []Route{
		{http.MethodPost, "/invoices/:id/document", h.Document.Generate},
		{http.MethodGet, "/admin/invoice-config", h.Config.Get},
		{http.MethodPost, "/admin/invoice-config", h.Config.Update},
		{http.MethodPost, "/hooks/order-placed", h.OrderPlaced.Receive},
	}
}

// mount registers routes under prefix
func mount(engine *gin.Engine, prefix string, routes []Route) {
	group := engine.Group(prefix)
	for _, r := range routes {
		group.Handle(r.Method, r.Path, r.Handler)
	}
}
