package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

type fakeConfigManager struct {
	cfg     *invoice.Config
	err     error
	updated *invoiceapp.UpdateConfigRequest
}

func (f *fakeConfigManager) Get(context.Context) (*invoice.Config, error) {
	return f.cfg, f.err
}

func (f *fakeConfigManager) Update(_ context.Context, req invoiceapp.UpdateConfigRequest) (*invoice.Config, error) {
	f.updated = &req
	if f.err != nil {
		return nil, f.err
	}
	if req.CompanyName != nil {
		f.cfg.CompanyName = *req.CompanyName
	}
	return f.cfg, nil
}

func TestInvoiceConfigHandler_Get(t *testing.T) {
	t.Run("saved config", func(t *testing.T) {
		configs := &fakeConfigManager{cfg: &invoice.Config{
			ID:          "cfg_1",
			CompanyName: "Acme Supplies",
			CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}}
		c, w := newTestContext(http.MethodGet, "/admin/invoice-config", "")
		NewInvoiceConfigHandler(configs).Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		require.Contains(t, resp.Data, "invoice_config")
		data := resp.Data.(map[string]any)["invoice_config"].(map[string]any)
		assert.Equal(t, "Acme Supplies", data["company_name"])
		assert.Equal(t, "cfg_1", data["id"])
		assert.NotContains(t, data, "updated_at")
	})

	t.Run("not yet saved", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/admin/invoice-config", "")
		NewInvoiceConfigHandler(&fakeConfigManager{}).Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)["invoice_config"].(map[string]any)
		assert.Equal(t, "", data["company_name"])
	})
}

func TestInvoiceConfigHandler_Update(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		configs := &fakeConfigManager{cfg: &invoice.Config{ID: "cfg_1", Notes: "Thanks"}}
		c, w := newTestContext(http.MethodPost, "/admin/invoice-config", `{"company_name":"Acme"}`)
		NewInvoiceConfigHandler(configs).Update(c)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, configs.updated)
		require.NotNil(t, configs.updated.CompanyName)
		assert.Equal(t, "Acme", *configs.updated.CompanyName)
		assert.Nil(t, configs.updated.Notes)

		data := decodeResponse(t, w).Data.(map[string]any)["invoice_config"].(map[string]any)
		assert.Equal(t, "Acme", data["company_name"])
		assert.Equal(t, "Thanks", data["notes"])
	})

	t.Run("field too long", func(t *testing.T) {
		configs := &fakeConfigManager{cfg: &invoice.Config{}}
		long := make([]byte, 60)
		for i := range long {
			long[i] = '1'
		}
		c, w := newTestContext(http.MethodPost, "/admin/invoice-config", `{"company_phone":"`+string(long)+`"}`)
		NewInvoiceConfigHandler(configs).Update(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
		assert.Nil(t, configs.updated)
	})

	t.Run("service rejects", func(t *testing.T) {
		configs := &fakeConfigManager{err: shared.NewDomainError(shared.CodeInvalidInput, "invalid logo")}
		c, w := newTestContext(http.MethodPost, "/admin/invoice-config", `{"company_logo":"https://cdn.acme.test/missing.png"}`)
		NewInvoiceConfigHandler(configs).Update(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid logo", decodeResponse(t, w).Error.Message)
	})
}
