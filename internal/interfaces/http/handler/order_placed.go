package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// OrderPlacedProcessor handles order-placed events
type OrderPlacedProcessor interface {
	Handle(ctx context.Context, evt invoiceapp.OrderPlacedEvent) (*invoiceapp.OrderPlacedResult, error)
}

// OrderPlacedHookHandler receives order-placed webhooks from the commerce platform
type OrderPlacedHookHandler struct {
	BaseHandler
	processor OrderPlacedProcessor
}

// NewOrderPlacedHookHandler creates a new OrderPlacedHookHandler
func NewOrderPlacedHookHandler(processor OrderPlacedProcessor) *OrderPlacedHookHandler {
	return &OrderPlacedHookHandler{processor: processor}
}

// Receive handles one delivery; redeliveries of a handled event are acknowledged as duplicates.
//
//	@ID				receiveOrderPlaced
//	@Summary		Order placed webhook
//	@Description	Creates the invoice for the order, renders it and hands the PDF to the notifier
//	@Tags			hooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		invoiceapp.OrderPlacedEvent	true	"Order placed event"
//	@Success		202		{object}	dto.Response{data=dto.InvoiceIDResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Router			/hooks/order-placed [post]
func (h *OrderPlacedHookHandler) Receive(c *gin.Context) {
	var evt invoiceapp.OrderPlacedEvent
	if !h.BindJSON(c, &evt) {
		return
	}

	result, err := h.processor.Handle(c.Request.Context(), evt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, dto.InvoiceIDResponse{
		InvoiceID: result.InvoiceID,
		EventID:   result.EventID,
		Duplicate: result.Duplicate,
	})
}
