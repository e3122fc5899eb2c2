package invoice

import (
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
)

// UpdateConfigRequest is a partial update of the invoice configuration.
// Omitted fields are left untouched; an empty string clears a field.
type UpdateConfigRequest struct {
	CompanyName    *string `json:"company_name" binding:"omitempty,max=200"`
	CompanyAddress *string `json:"company_address" binding:"omitempty,max=1000"`
	CompanyPhone   *string `json:"company_phone" binding:"omitempty,max=50"`
	CompanyEmail   *string `json:"company_email" binding:"omitempty,max=200"`
	CompanyLogo    *string `json:"company_logo" binding:"omitempty,max=2048,asset_url"`
	Notes          *string `json:"notes" binding:"omitempty,max=4000"`
}

func (r UpdateConfigRequest) toDomain() invoice.ConfigUpdate {
	return invoice.ConfigUpdate{
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		CompanyPhone:   r.CompanyPhone,
		CompanyEmail:   r.CompanyEmail,
		CompanyLogo:    r.CompanyLogo,
		Notes:          r.Notes,
	}
}

// ConfigResponse is the API view of the invoice configuration
type ConfigResponse struct {
	ID             string     `json:"id,omitempty"`
	CompanyName    string     `json:"company_name"`
	CompanyAddress string     `json:"company_address"`
	CompanyPhone   string     `json:"company_phone"`
	CompanyEmail   string     `json:"company_email"`
	CompanyLogo    string     `json:"company_logo"`
	Notes          string     `json:"notes"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// ConfigEnvelope wraps the configuration under the invoice_config key
type ConfigEnvelope struct {
	InvoiceConfig *ConfigResponse `json:"invoice_config"`
}

// ToConfigEnvelope converts and wraps the domain config
func ToConfigEnvelope(cfg *invoice.Config) ConfigEnvelope {
	return ConfigEnvelope{InvoiceConfig: ToConfigResponse(cfg)}
}

// ToConfigResponse converts the domain config; a nil config yields empty fields
func ToConfigResponse(cfg *invoice.Config) *ConfigResponse {
	if cfg == nil {
		return &ConfigResponse{}
	}
	resp := &ConfigResponse{
		ID:             cfg.ID,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		CompanyPhone:   cfg.CompanyPhone,
		CompanyEmail:   cfg.CompanyEmail,
		CompanyLogo:    cfg.CompanyLogo,
		Notes:          cfg.Notes,
	}
	if !cfg.CreatedAt.IsZero() {
		created := cfg.CreatedAt
		resp.CreatedAt = &created
	}
	if !cfg.UpdatedAt.IsZero() {
		updated := cfg.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
