package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invoicing/backend/internal/domain/document"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
)

// maxDisplayIDAttempts bounds retries when two creators race for the same display id
const maxDisplayIDAttempts = 3

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB, logger *zap.Logger) *GormInvoiceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormInvoiceRepository{db: db, logger: logger}
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

// FindByOrderID finds the invoice issued for an order
func (r *GormInvoiceRepository) FindByOrderID(ctx context.Context, orderID string) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

// Create persists a new invoice with the next display id
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	for attempt := 1; ; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var next int64
			if err := tx.Model(&models.InvoiceModel{}).
				Select("COALESCE(MAX(display_id), 0) + 1").
				Scan(&next).Error; err != nil {
				return fmt.Errorf("failed to allocate display id: %w", err)
			}
			inv.DisplayID = next

			model, err := models.InvoiceModelFromDomain(inv)
			if err != nil {
				return err
			}
			return tx.Create(model).Error
		})
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}

		// The order already has an invoice
		if _, findErr := r.FindByOrderID(ctx, inv.OrderID); findErr == nil {
			return shared.ErrAlreadyExists
		}
		if attempt >= maxDisplayIDAttempts {
			return fmt.Errorf("failed to allocate display id after %d attempts: %w", attempt, err)
		}
		r.logger.Debug("Display id taken, retrying",
			zap.String("invoice_id", inv.ID),
			zap.Int("attempt", attempt))
	}
}

// SaveDocument fully replaces the stored document model
func (r *GormInvoiceRepository) SaveDocument(ctx context.Context, id string, m *document.Model) error {
	data, err := document.Marshal(m)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"document_model": string(data),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoice.ErrInvoiceNotFound
	}
	return nil
}

// toDomain maps a row, treating an undecodable document as absent so it gets rebuilt
func (r *GormInvoiceRepository) toDomain(m *models.InvoiceModel) *invoice.Invoice {
	inv, err := m.ToDomain()
	if err != nil {
		r.logger.Warn("Stored document model is unreadable, treating as stale",
			zap.String("invoice_id", m.ID),
			zap.Error(err))
	}
	return inv
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// GormInvoiceConfigRepository implements invoice.ConfigRepository using GORM
type GormInvoiceConfigRepository struct {
	db *gorm.DB
}

// NewGormInvoiceConfigRepository creates a new GormInvoiceConfigRepository
func NewGormInvoiceConfigRepository(db *gorm.DB) *GormInvoiceConfigRepository {
	return &GormInvoiceConfigRepository{db: db}
}

// Ensure GormInvoiceConfigRepository implements invoice.ConfigRepository
var _ invoice.ConfigRepository = (*GormInvoiceConfigRepository)(nil)

// Current returns the oldest configuration record
func (r *GormInvoiceConfigRepository) Current(ctx context.Context) (*invoice.Config, bool, error) {
	var model models.InvoiceConfigModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return model.ToDomain(), true, nil
}

// Save creates or updates the configuration record
func (r *GormInvoiceConfigRepository) Save(ctx context.Context, cfg *invoice.Config) error {
	if cfg.ID == "" {
		cfg.ID = invoice.NewConfigID()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	return r.db.WithContext(ctx).Save(models.InvoiceConfigModelFromDomain(cfg)).Error
}
