package models

import (
	"time"

	"github.com/invoicing/backend/internal/domain/document"
	"github.com/invoicing/backend/internal/domain/invoice"
)

// InvoiceModel is the GORM model for the invoices table.
// DocumentModel holds the serialized document model, NULL until first generation.
type InvoiceModel struct {
	ID            string    `gorm:"type:varchar(64);primary_key"`
	OrderID       string    `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex"`
	DisplayID     int64     `gorm:"column:display_id;not null;uniqueIndex"`
	DocumentModel *string   `gorm:"column:document_model;type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to a domain Invoice.
// A document that cannot be decoded is returned as a decode error alongside
// the invoice so the caller can treat it as stale.
func (m *InvoiceModel) ToDomain() (*invoice.Invoice, error) {
	inv := &invoice.Invoice{
		ID:        m.ID,
		OrderID:   m.OrderID,
		DisplayID: m.DisplayID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.DocumentModel == nil || *m.DocumentModel == "" {
		return inv, nil
	}
	doc, err := document.Unmarshal([]byte(*m.DocumentModel))
	if err != nil {
		return inv, err
	}
	inv.Document = doc
	return inv, nil
}

// InvoiceModelFromDomain creates an InvoiceModel from a domain Invoice
func InvoiceModelFromDomain(inv *invoice.Invoice) (*InvoiceModel, error) {
	m := &InvoiceModel{
		ID:        inv.ID,
		OrderID:   inv.OrderID,
		DisplayID: inv.DisplayID,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
	if inv.Document != nil {
		data, err := document.Marshal(inv.Document)
		if err != nil {
			return nil, err
		}
		s := string(data)
		m.DocumentModel = &s
	}
	return m, nil
}

// InvoiceConfigModel is the GORM model for the invoice_config table
type InvoiceConfigModel struct {
	ID             string    `gorm:"type:varchar(64);primary_key"`
	CompanyName    string    `gorm:"column:company_name;type:varchar(200);not null;default:''"`
	CompanyAddress string    `gorm:"column:company_address;type:text;not null;default:''"`
	CompanyPhone   string    `gorm:"column:company_phone;type:varchar(50);not null;default:''"`
	CompanyEmail   string    `gorm:"column:company_email;type:varchar(200);not null;default:''"`
	CompanyLogo    string    `gorm:"column:company_logo;type:text;not null;default:''"`
	Notes          string    `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for InvoiceConfigModel
func (InvoiceConfigModel) TableName() string {
	return "invoice_config"
}

// ToDomain converts InvoiceConfigModel to a domain Config
func (m *InvoiceConfigModel) ToDomain() *invoice.Config {
	return &invoice.Config{
		ID:             m.ID,
		CompanyName:    m.CompanyName,
		CompanyAddress: m.CompanyAddress,
		CompanyPhone:   m.CompanyPhone,
		CompanyEmail:   m.CompanyEmail,
		CompanyLogo:    m.CompanyLogo,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// InvoiceConfigModelFromDomain creates an InvoiceConfigModel from a domain Config
func InvoiceConfigModelFromDomain(c *invoice.Config) *InvoiceConfigModel {
	return &InvoiceConfigModel{
		ID:             c.ID,
		CompanyName:    c.CompanyName,
		CompanyAddress: c.CompanyAddress,
		CompanyPhone:   c.CompanyPhone,
		CompanyEmail:   c.CompanyEmail,
		CompanyLogo:    c.CompanyLogo,
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
