package invoice

import (
	"context"

	"github.com/invoicing/backend/internal/domain/document"
)

// Repository is the invoice cache store
type Repository interface {
	// FindByID returns ErrInvoiceNotFound when the invoice does not exist
	FindByID(ctx context.Context, id string) (*Invoice, error)

	// FindByOrderID returns ErrInvoiceNotFound when the order has no invoice
	FindByOrderID(ctx context.Context, orderID string) (*Invoice, error)

	// Create persists a new invoice and assigns the next display id
	Create(ctx context.Context, inv *Invoice) error

	// SaveDocument fully replaces the stored document model of an invoice
	SaveDocument(ctx context.Context, id string, m *document.Model) error
}

// ConfigRepository stores the single tenant configuration record
type ConfigRepository interface {
	// Current returns the configuration and false when none has been saved yet
	Current(ctx context.Context) (*Config, bool, error)

	// Save creates or updates the configuration record
	Save(ctx context.Context, cfg *Config) error
}
