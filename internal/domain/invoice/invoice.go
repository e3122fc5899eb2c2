package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoicing/backend/internal/domain/document"
)

// IDPrefix prefixes generated invoice identifiers
const IDPrefix = "inv_"

// Invoice is the cache record for an order's billing document.
// Document is nil until the first generation and is only ever fully replaced.
type Invoice struct {
	ID        string
	OrderID   string
	DisplayID int64
	Document  *document.Model
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInvoice creates an invoice for an order. The display id is assigned by the repository.
func NewInvoice(orderID string) (*Invoice, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, NewMalformedOrderSnapshotError("id", "order id is required")
	}
	now := time.Now().UTC()
	return &Invoice{
		ID:        NewID(),
		OrderID:   orderID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewID generates a prefixed, lowercase invoice identifier
func NewID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Number returns the human-facing invoice number, e.g. INV-000042
func (i *Invoice) Number() string {
	return fmt.Sprintf("INV-%06d", i.DisplayID)
}

// ReplaceDocument swaps in a freshly built model
func (i *Invoice) ReplaceDocument(m *document.Model) {
	i.Document = m
	i.UpdatedAt = time.Now().UTC()
}

// FormatOrderNumber zero-pads an order display id to six digits
func FormatOrderNumber(displayID int64) string {
	return fmt.Sprintf("%06d", displayID)
}
