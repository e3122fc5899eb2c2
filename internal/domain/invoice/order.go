package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/shared/valueobject"
)

// Address is a postal address attached to an order
type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone,omitempty"`
}

// LineItem is a single ordered product line
type LineItem struct {
	ID        string             `json:"id,omitempty"`
	Title     string             `json:"title"`
	Quantity  int64              `json:"quantity"`
	UnitPrice valueobject.Amount `json:"unit_price"`
	Total     valueobject.Amount `json:"total"`
}

// ShippingMethod is a shipping option chosen for the order
type ShippingMethod struct {
	Name  string             `json:"name,omitempty"`
	Total valueobject.Amount `json:"total"`
}

// OrderSnapshot is a read-only view of a placed order, supplied by the caller.
// Totals are authoritative and are never recomputed from line items.
type OrderSnapshot struct {
	ID              string             `json:"id"`
	DisplayID       int64              `json:"display_id"`
	CreatedAt       time.Time          `json:"created_at"`
	CurrencyCode    string             `json:"currency_code"`
	Email           string             `json:"email,omitempty"`
	BillingAddress  *Address           `json:"billing_address,omitempty"`
	ShippingAddress *Address           `json:"shipping_address,omitempty"`
	Items           []LineItem         `json:"items"`
	ShippingMethods []ShippingMethod   `json:"shipping_methods,omitempty"`
	Subtotal        valueobject.Amount `json:"subtotal"`
	TaxTotal        valueobject.Amount `json:"tax_total"`
	DiscountTotal   valueobject.Amount `json:"discount_total"`
	Total           valueobject.Amount `json:"total"`
}

// ShippingTotal returns the first shipping method's total, or zero when none exists
func (o *OrderSnapshot) ShippingTotal() valueobject.Amount {
	if len(o.ShippingMethods) == 0 {
		return valueobject.Amount{}
	}
	return o.ShippingMethods[0].Total
}

// Validate checks the fields the document builder depends on
func (o *OrderSnapshot) Validate() error {
	if o == nil {
		return NewMalformedOrderSnapshotError("order", "order snapshot is required")
	}
	if strings.TrimSpace(o.ID) == "" {
		return NewMalformedOrderSnapshotError("id", "order id is required")
	}
	if o.DisplayID < 0 {
		return NewMalformedOrderSnapshotError("display_id", "display id cannot be negative")
	}
	if o.CreatedAt.IsZero() {
		return NewMalformedOrderSnapshotError("created_at", "order creation time is required")
	}
	if strings.TrimSpace(o.CurrencyCode) == "" {
		return NewMalformedOrderSnapshotError("currency_code", "currency code is required")
	}
	for i, item := range o.Items {
		if item.Quantity < 0 {
			return NewMalformedOrderSnapshotError(
				fmt.Sprintf("items[%d].quantity", i),
				"quantity cannot be negative",
			)
		}
	}
	return nil
}
