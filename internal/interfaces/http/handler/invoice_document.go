package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
)

// Cache header values
const (
	CacheHit         = "hit"
	CacheMiss        = "miss"
	CacheWriteFailed = "failed"
)

// ArchiveKeyHeader carries the archive key of the rendered PDF, when archived
const ArchiveKeyHeader = "X-Invoice-Archive-Key"

// DocumentGenerator produces invoice PDFs
type DocumentGenerator interface {
	GenerateInvoiceDocument(ctx context.Context, invoiceID string, order *invoice.OrderSnapshot) (*invoiceapp.GenerateResult, error)
}

// InvoiceDocumentHandler serves invoice PDFs
type InvoiceDocumentHandler struct {
	BaseHandler
	generator DocumentGenerator
	logger    *zap.Logger
}

// NewInvoiceDocumentHandler creates a new InvoiceDocumentHandler
func NewInvoiceDocumentHandler(generator DocumentGenerator, log *zap.Logger) *InvoiceDocumentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceDocumentHandler{generator: generator, logger: log}
}

// Generate renders the invoice for the posted order snapshot.
//
//	@ID				generateInvoiceDocument
//	@Summary		Render invoice PDF
//	@Description	Reuses the cached document model while it is current, otherwise rebuilds and stores it.
//	@Description	X-Invoice-Cache reports hit or miss; X-Invoice-Cache-Write is "failed" when the rebuilt model was not stored.
//	@Tags			invoices
//	@Accept			json
//	@Produce		application/pdf
//	@Param			id		path		string					true	"Invoice ID"
//	@Param			request	body		invoice.OrderSnapshot	true	"Order snapshot"
//	@Success		200		{file}		binary
//	@Header			200		{string}	X-Invoice-Cache			"hit or miss"
//	@Header			200		{string}	X-Invoice-Cache-Write	"failed when the model was not cached"
//	@Failure		400		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Failure		503		{object}	dto.Response
//	@Router			/invoices/{id}/document [post]
func (h *InvoiceDocumentHandler) Generate(c *gin.Context) {
	invoiceID := c.Param("id")
	if invoiceID == "" {
		h.BadRequest(c, "invoice id is required")
		return
	}

	var order invoice.OrderSnapshot
	if !h.BindJSON(c, &order) {
		return
	}

	ctx, log := logger.WithInvoiceID(c.Request.Context(), requestLogger(c, h.logger), invoiceID)
	result, err := h.generator.GenerateInvoiceDocument(ctx, invoiceID, &order)
	if err != nil {
		log.Warn("Invoice document generation failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}

	cache := CacheMiss
	if result.CacheHit() {
		cache = CacheHit
	}
	c.Header(middleware.InvoiceCacheHeader, cache)
	if result.CacheWriteErr != nil {
		c.Header(middleware.InvoiceCacheWriteHeader, CacheWriteFailed)
		log.Warn("Serving invoice without cached model", zap.Error(result.CacheWriteErr))
	}
	if result.ArchiveKey != "" {
		c.Header(ArchiveKeyHeader, result.ArchiveKey)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, invoiceapp.AttachmentFilename(order.ID)))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}
