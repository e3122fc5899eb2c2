package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

type fakeOrderPlacedProcessor struct {
	result *invoiceapp.OrderPlacedResult
	err    error
	got    *invoiceapp.OrderPlacedEvent
}

func (f *fakeOrderPlacedProcessor) Handle(_ context.Context, evt invoiceapp.OrderPlacedEvent) (*invoiceapp.OrderPlacedResult, error) {
	f.got = &evt
	return f.result, f.err
}

func TestOrderPlacedHookHandler_Receive(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		p := &fakeOrderPlacedProcessor{result: &invoiceapp.OrderPlacedResult{EventID: "evt_1", InvoiceID: "inv_1"}}
		c, w := newTestContext(http.MethodPost, "/hooks/order-placed", `{"event_id":"evt_1","order":`+orderBody+`}`)
		NewOrderPlacedHookHandler(p).Receive(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.NotNil(t, p.got)
		assert.Equal(t, "evt_1", p.got.EventID)
		assert.Equal(t, "order_01", p.got.Order.ID)

		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "inv_1", data["invoice_id"])
		assert.Equal(t, "evt_1", data["event_id"])
		assert.NotContains(t, data, "duplicate")
	})

	t.Run("duplicate", func(t *testing.T) {
		p := &fakeOrderPlacedProcessor{result: &invoiceapp.OrderPlacedResult{EventID: "evt_1", Duplicate: true}}
		c, w := newTestContext(http.MethodPost, "/hooks/order-placed", `{"event_id":"evt_1","order":`+orderBody+`}`)
		NewOrderPlacedHookHandler(p).Receive(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, true, data["duplicate"])
	})

	t.Run("missing order", func(t *testing.T) {
		p := &fakeOrderPlacedProcessor{}
		c, w := newTestContext(http.MethodPost, "/hooks/order-placed", `{"event_id":"evt_1"}`)
		NewOrderPlacedHookHandler(p).Receive(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "order", resp.Error.Details[0].Field)
		assert.Nil(t, p.got)
	})

	t.Run("processing failure", func(t *testing.T) {
		p := &fakeOrderPlacedProcessor{err: errors.New("notifier down")}
		c, w := newTestContext(http.MethodPost, "/hooks/order-placed", `{"event_id":"evt_1","order":`+orderBody+`}`)
		NewOrderPlacedHookHandler(p).Receive(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
