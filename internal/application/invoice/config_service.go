package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
)

// ConfigService reads and updates the tenant invoice configuration.
// Updates do not invalidate cached document models; only a schema version bump does.
type ConfigService struct {
	configs  invoice.ConfigRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(configs invoice.ConfigRepository, logger *zap.Logger) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{
		configs:  configs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Get returns the current configuration, or an empty one when none was saved
func (s *ConfigService) Get(ctx context.Context) (*invoice.Config, error) {
	cfg, found, err := s.configs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice configuration: %w", err)
	}
	if !found {
		return &invoice.Config{}, nil
	}
	return cfg, nil
}

// Update applies a partial update and persists it
func (s *ConfigService) Update(ctx context.Context, req UpdateConfigRequest) (*invoice.Config, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	cfg, found, err := s.configs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice configuration: %w", err)
	}
	if !found {
		now := time.Now().UTC()
		cfg = &invoice.Config{CreatedAt: now, UpdatedAt: now}
	}

	changed := cfg.Apply(req.toDomain())
	if !changed && found {
		return cfg, nil
	}

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save invoice configuration: %w", err)
	}

	s.logger.Info("Invoice configuration updated",
		zap.String("id", cfg.ID),
		zap.Bool("has_logo", cfg.HasLogo()))
	return cfg, nil
}

// validateRequest checks formats of the non-empty fields
func (s *ConfigService) validateRequest(req UpdateConfigRequest) error {
	checks := []struct {
		field string
		value *string
		tag   string
	}{
		{"company_email", req.CompanyEmail, "email"},
		{"company_logo", req.CompanyLogo, "http_url"},
		{"company_name", req.CompanyName, "max=200"},
		{"notes", req.Notes, "max=4000"},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		v := strings.TrimSpace(*c.value)
		if v == "" {
			continue
		}
		if err := s.validate.Var(v, c.tag); err != nil {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("invalid %s", c.field))
		}
	}
	return nil
}
