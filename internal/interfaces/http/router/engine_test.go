package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
)

type stubGenerator struct{}

func (stubGenerator) GenerateInvoiceDocument(_ context.Context, invoiceID string, _ *invoice.OrderSnapshot) (*invoiceapp.GenerateResult, error) {
	if invoiceID == "missing" {
		return nil, invoice.ErrInvoiceNotFound
	}
	return &invoiceapp.GenerateResult{InvoiceID: invoiceID, PDF: []byte("%PDF")}, nil
}

type stubConfigs struct{}

func (stubConfigs) Get(context.Context) (*invoice.Config, error) {
	return &invoice.Config{CompanyName: "Acme"}, nil
}

func (stubConfigs) Update(context.Context, invoiceapp.UpdateConfigRequest) (*invoice.Config, error) {
	return &invoice.Config{CompanyName: "Acme"}, nil
}

type stubProcessor struct{}

func (stubProcessor) Handle(_ context.Context, evt invoiceapp.OrderPlacedEvent) (*invoiceapp.OrderPlacedResult, error) {
	return &invoiceapp.OrderPlacedResult{EventID: evt.EventID, InvoiceID: "inv_1"}, nil
}

func newTestHandlers() Handlers {
	return Handlers{
		Document:    handler.NewInvoiceDocumentHandler(stubGenerator{}, nil),
		Config:      handler.NewInvoiceConfigHandler(stubConfigs{}),
		OrderPlaced: handler.NewOrderPlacedHookHandler(stubProcessor{}),
		Health:      handler.NewHealthHandler(),
	}
}

func newTestEngine(cfg EngineConfig) http.Handler {
	return NewEngine(cfg, newTestHandlers(), nil)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(EngineConfig{ServiceName: "invoice-backend"})

	t.Run("health", func(t *testing.T) {
		w := do(engine, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("document", func(t *testing.T) {
		w := do(engine, http.MethodPost, "/api/v1/invoices/inv_1/document", `{"id":"order_1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, handler.CacheHit, w.Header().Get(middleware.InvoiceCacheHeader))
	})

	t.Run("document not found", func(t *testing.T) {
		w := do(engine, http.MethodPost, "/api/v1/invoices/missing/document", `{"id":"order_1"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admin config", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/api/v1/admin/invoice-config", "").Code)
		assert.Equal(t, http.StatusOK, do(engine, http.MethodPost, "/api/v1/admin/invoice-config", `{"notes":"hi"}`).Code)
	})

	t.Run("order placed hook", func(t *testing.T) {
		w := do(engine, http.MethodPost, "/api/v1/hooks/order-placed", `{"event_id":"evt_1","order":{"id":"order_1"}}`)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := do(engine, http.MethodGet, "/api/v1/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}

func TestNewEngine_BodyLimitAndRateLimit(t *testing.T) {
	engine := newTestEngine(EngineConfig{
		MaxBodySize: 32,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}),
	})

	w := do(engine, http.MethodPost, "/api/v1/hooks/order-placed", `{"event_id":"evt_1","order":{"id":"order_with_a_long_identifier"}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(engine, http.MethodGet, "/health", "").Code)
}
