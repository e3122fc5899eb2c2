package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	c.Request = req
	c.Set(middleware.RequestIDKey, "req-test")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "invoice not found",
			err:     fmt.Errorf("lookup: %w", invoice.ErrInvoiceNotFound),
			status:  http.StatusNotFound,
			code:    dto.ErrCodeNotFound,
			message: "invoice not found",
		},
		{
			name:    "invalid input",
			err:     shared.NewDomainError(shared.CodeInvalidInput, "company name too long"),
			status:  http.StatusBadRequest,
			code:    dto.ErrCodeInvalidInput,
			message: "company name too long",
		},
		{
			name:    "malformed snapshot",
			err:     invoice.NewMalformedOrderSnapshotError("currency_code", "is required"),
			status:  http.StatusBadRequest,
			code:    dto.ErrCodeMalformedSnapshot,
			message: "malformed order snapshot: currency_code: is required",
		},
		{
			name:    "rendering failed hides cause",
			err:     &invoice.RenderingFailedError{InvoiceID: "inv_1", Cause: errors.New("chrome crashed at 0xdead")},
			status:  http.StatusBadGateway,
			code:    dto.ErrCodeRenderingFailed,
			message: "Failed to render invoice document",
		},
		{
			name:    "persistence write",
			err:     &invoice.PersistenceWriteError{InvoiceID: "inv_1", Cause: errors.New("disk full")},
			status:  http.StatusServiceUnavailable,
			code:    dto.ErrCodePersistenceWrite,
			message: "Failed to store invoice document",
		},
		{
			name:    "unknown",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeInternal,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/", "")
			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, "req-test", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/", "")
	(&BaseHandler{}).HandleError(c, nil)
	assert.Zero(t, w.Body.Len())
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name" binding:"required"`
	}

	t.Run("ok", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/", `{"name":"x"}`)
		var p payload
		assert.True(t, (&BaseHandler{}).BindJSON(c, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("invalid json", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", `{"name":`)
		var p payload
		assert.False(t, (&BaseHandler{}).BindJSON(c, &p))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", `{}`)
		var p payload
		assert.False(t, (&BaseHandler{}).BindJSON(c, &p))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "name", resp.Error.Details[0].Field)
	})

	t.Run("too large", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", `{"name":"`+strings.Repeat("x", 64)+`"}`)
		c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 8)
		var p payload
		assert.False(t, (&BaseHandler{}).BindJSON(c, &p))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
