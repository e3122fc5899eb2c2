package invoice

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/domain/shared/valueobject"
)

func validOrder() *OrderSnapshot {
	return &OrderSnapshot{
		ID:           "order_01",
		DisplayID:    42,
		CreatedAt:    time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		CurrencyCode: "eur",
		Items: []LineItem{
			{Title: "Widget", Quantity: 2, UnitPrice: valueobject.MustAmount("40"), Total: valueobject.MustAmount("80")},
		},
	}
}

func TestOrderSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *OrderSnapshot)
		field  string
	}{
		{name: "missing id", mutate: func(o *OrderSnapshot) { o.ID = " " }, field: "id"},
		{name: "negative display id", mutate: func(o *OrderSnapshot) { o.DisplayID = -1 }, field: "display_id"},
		{name: "missing created_at", mutate: func(o *OrderSnapshot) { o.CreatedAt = time.Time{} }, field: "created_at"},
		{name: "missing currency", mutate: func(o *OrderSnapshot) { o.CurrencyCode = "" }, field: "currency_code"},
		{name: "negative quantity", mutate: func(o *OrderSnapshot) {
			o.Items = append(o.Items, LineItem{Title: "Bad", Quantity: -3})
		}, field: "items[1].quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)

			err := o.Validate()
			require.Error(t, err)

			var malformed *MalformedOrderSnapshotError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("valid order", func(t *testing.T) {
		assert.NoError(t, validOrder().Validate())
	})

	t.Run("zero items is valid", func(t *testing.T) {
		o := validOrder()
		o.Items = nil
		assert.NoError(t, o.Validate())
	})

	t.Run("nil order", func(t *testing.T) {
		var o *OrderSnapshot
		assert.Error(t, o.Validate())
	})
}

func TestOrderSnapshot_ShippingTotal(t *testing.T) {
	o := validOrder()
	assert.True(t, o.ShippingTotal().IsZero())

	o.ShippingMethods = []ShippingMethod{
		{Name: "Express", Total: valueobject.MustAmount("5")},
		{Name: "Ignored", Total: valueobject.MustAmount("99")},
	}
	assert.True(t, o.ShippingTotal().Equal(valueobject.MustAmount("5")))
}

func TestOrderSnapshot_DecodeMixedAmounts(t *testing.T) {
	payload := `{
		"id": "order_01",
		"display_id": 7,
		"created_at": "2024-03-05T10:00:00Z",
		"currency_code": "EUR",
		"items": [{"title": "Widget", "quantity": 2, "unit_price": 40, "total": "80.00"}],
		"shipping_methods": [{"total": {"value": "5", "precision": 20}}],
		"subtotal": 80, "tax_total": "20", "discount_total": 0, "total": {"value": 105}
	}`

	var o OrderSnapshot
	require.NoError(t, json.Unmarshal([]byte(payload), &o))
	require.NoError(t, o.Validate())

	assert.True(t, o.Items[0].Total.Equal(valueobject.MustAmount("80")))
	assert.True(t, o.ShippingTotal().Equal(valueobject.MustAmount("5")))
	assert.True(t, o.Total.Equal(valueobject.MustAmount("105")))
	assert.Nil(t, o.BillingAddress)
}
