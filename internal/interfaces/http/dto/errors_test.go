package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/domain/shared"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeRenderingFailed, http.StatusBadGateway},
		{ErrCodePersistenceWrite, http.StatusServiceUnavailable},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeMalformedSnapshot, http.StatusBadRequest},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.code), tt.code)
	}
}

func TestAPICode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, APICode(shared.CodeNotFound))
	assert.Equal(t, ErrCodeInvalidInput, APICode(shared.CodeInvalidInput))
	assert.Equal(t, ErrCodeMalformedSnapshot, APICode(shared.CodeMalformedSnapshot))
	assert.Equal(t, ErrCodeRenderingFailed, APICode(shared.CodeRenderingFailed))
	assert.Equal(t, ErrCodePersistenceWrite, APICode(shared.CodePersistenceWrite))
	assert.Equal(t, ErrCodeValidation, APICode(ErrCodeValidation))
	// asset failures degrade the document and never reach a response
	assert.Equal(t, shared.CodeAssetUnavailable, APICode(shared.CodeAssetUnavailable))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(shared.CodeNotFound, "invoice not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "invoice not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "order.currency_code", Message: "This field is required"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestResponseJSON(t *testing.T) {
	t.Run("success omits error", func(t *testing.T) {
		data, err := json.Marshal(NewSuccessResponse(InvoiceIDResponse{InvoiceID: "inv_1"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"invoice_id":"inv_1"}}`, string(data))
	})

	t.Run("error omits data", func(t *testing.T) {
		data, err := json.Marshal(NewErrorResponse(ErrCodeRenderingFailed, "render failed"))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, false, decoded["success"])
		assert.NotContains(t, decoded, "data")

		errInfo := decoded["error"].(map[string]any)
		assert.Equal(t, ErrCodeRenderingFailed, errInfo["code"])
		assert.NotContains(t, errInfo, "request_id")
	})
}
