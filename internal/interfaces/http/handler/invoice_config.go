package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/invoice"
)

// ConfigManager reads and updates the invoice configuration
type ConfigManager interface {
	Get(ctx context.Context) (*invoice.Config, error)
	Update(ctx context.Context, req invoiceapp.UpdateConfigRequest) (*invoice.Config, error)
}

// InvoiceConfigHandler serves the admin invoice configuration endpoints
type InvoiceConfigHandler struct {
	BaseHandler
	configs ConfigManager
}

// NewInvoiceConfigHandler creates a new InvoiceConfigHandler
func NewInvoiceConfigHandler(configs ConfigManager) *InvoiceConfigHandler {
	return &InvoiceConfigHandler{configs: configs}
}

// Get returns the current configuration; fields are empty until first saved.
//
//	@ID				getInvoiceConfig
//	@Summary		Get invoice configuration
//	@Description	Company details, logo and notes printed on every invoice
//	@Tags			invoice-config
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=invoiceapp.ConfigEnvelope}
//	@Failure		500	{object}	dto.Response
//	@Router			/admin/invoice-config [get]
func (h *InvoiceConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoiceapp.ToConfigEnvelope(cfg))
}

// Update applies a partial update.
//
//	@ID				updateInvoiceConfig
//	@Summary		Update invoice configuration
//	@Description	Partial update; omitted fields keep their value. Cached documents are not rebuilt.
//	@Tags			invoice-config
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invoiceapp.UpdateConfigRequest	true	"Fields to change"
//	@Success		200		{object}	dto.Response{data=invoiceapp.ConfigEnvelope}
//	@Failure		400		{object}	dto.Response
//	@Failure		413		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Router			/admin/invoice-config [post]
func (h *InvoiceConfigHandler) Update(c *gin.Context) {
	var req invoiceapp.UpdateConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := h.configs.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoiceapp.ToConfigEnvelope(cfg))
}
