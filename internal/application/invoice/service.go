package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/invoicing/backend/internal/domain/document"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/infrastructure/storage"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// RegenerationLock serialises regeneration of one invoice across instances
type RegenerationLock interface {
	Acquire(ctx context.Context, invoiceID string) (release func(), err error)
}

// GenerateResult is the outcome of a document generation request
type GenerateResult struct {
	InvoiceID string
	PDF       []byte
	Model     *document.Model
	// Regenerated is false when the cached model was reused
	Regenerated bool
	// CacheWriteErr is set when a rebuilt model could not be persisted;
	// the PDF is still valid
	CacheWriteErr *invoice.PersistenceWriteError
	// ArchiveKey is the archived PDF key, empty when archiving is off or failed
	ArchiveKey string
}

// CacheHit reports whether the stored model was served without rebuilding
func (r *GenerateResult) CacheHit() bool {
	return !r.Regenerated
}

// resolution is the model decided under the regeneration guard
type resolution struct {
	model       *document.Model
	regenerated bool
	writeErr    *invoice.PersistenceWriteError
}

// Service produces invoice PDFs, reusing the cached document model while it is current
type Service struct {
	invoices    invoice.Repository
	configs     invoice.ConfigRepository
	builder     *Builder
	renderer    printing.DocumentRenderer
	lock        RegenerationLock
	archive     storage.PDFArchive
	metrics     *telemetry.InvoiceMetrics
	strictWrite bool
	group       singleflight.Group
	logger      *zap.Logger
}

// ServiceOption configures optional Service collaborators
type ServiceOption func(*Service)

// WithRegenerationLock adds a cross-instance guard around regeneration
func WithRegenerationLock(lock RegenerationLock) ServiceOption {
	return func(s *Service) {
		s.lock = lock
	}
}

// WithPDFArchive stores every rendered PDF, best effort
func WithPDFArchive(archive storage.PDFArchive) ServiceOption {
	return func(s *Service) {
		s.archive = archive
	}
}

// WithMetrics records cache and render metrics
func WithMetrics(metrics *telemetry.InvoiceMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithStrictCacheWrite makes a failed cache write fail the whole request
func WithStrictCacheWrite(strict bool) ServiceOption {
	return func(s *Service) {
		s.strictWrite = strict
	}
}

// NewService creates a new invoice document Service
func NewService(
	invoices invoice.Repository,
	configs invoice.ConfigRepository,
	builder *Builder,
	renderer printing.DocumentRenderer,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		invoices: invoices,
		configs:  configs,
		builder:  builder,
		renderer: renderer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateInvoiceDocument returns the PDF for an invoice, rebuilding and
// persisting its document model first when the cached one is missing or stale
func (s *Service) GenerateInvoiceDocument(ctx context.Context, invoiceID string, order *invoice.OrderSnapshot) (*GenerateResult, error) {
	ctx, span := telemetry.Start(ctx, "invoice_document", "generate", telemetry.AttrInvoiceID.String(invoiceID))
	defer span.End()

	if err := order.Validate(); err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	span.SetAttributes(
		telemetry.AttrOrderID.String(order.ID),
		telemetry.AttrCurrencyCode.String(order.CurrencyCode),
	)

	res, err := s.resolve(ctx, invoiceID, order)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	s.metrics.RecordCacheLookup(ctx, !res.regenerated)
	span.SetAttributes(
		telemetry.AttrRegenerated.Bool(res.regenerated),
		telemetry.AttrSchemaVersion.String(res.model.SchemaVersion),
	)

	if res.writeErr != nil && s.strictWrite {
		telemetry.Fail(span, res.writeErr)
		return nil, res.writeErr
	}

	pdf, err := s.render(ctx, invoiceID, res.model)
	if err != nil {
		telemetry.Fail(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrPDFBytes.Int(len(pdf)))

	result := &GenerateResult{
		InvoiceID:     invoiceID,
		PDF:           pdf,
		Model:         res.model,
		Regenerated:   res.regenerated,
		CacheWriteErr: res.writeErr,
	}
	result.ArchiveKey = s.archivePDF(ctx, invoiceID, res, pdf)

	telemetry.OK(span)
	return result, nil
}

// resolveTimeout bounds a shared resolution, which no longer follows any
// single caller's context
const resolveTimeout = 30 * time.Second

// resolve decides the model to render. Concurrent calls for one invoice
// share a single resolution; the lock extends that across instances. A caller
// that goes away stops waiting but does not cancel the work the others share.
func (s *Service) resolve(ctx context.Context, invoiceID string, order *invoice.OrderSnapshot) (*resolution, error) {
	ch := s.group.DoChan(invoiceID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()

		if s.lock != nil {
			release, err := s.lock.Acquire(ctx, invoiceID)
			if err != nil {
				s.logger.Warn("Regeneration lock unavailable, continuing without it",
					zap.String("invoice_id", invoiceID),
					zap.Error(err))
			} else {
				defer release()
			}
		}
		return s.resolveLocked(ctx, invoiceID, order)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			s.logger.Debug("Joined in-flight document resolution", zap.String("invoice_id", invoiceID))
		}
		return r.Val.(*resolution), nil
	}
}

func (s *Service) resolveLocked(ctx context.Context, invoiceID string, order *invoice.OrderSnapshot) (*resolution, error) {
	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	if !document.NeedsRegeneration(inv.Document) {
		return &resolution{model: inv.Document}, nil
	}

	cfg, _, err := s.configs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice configuration: %w", err)
	}

	model, err := s.builder.Build(ctx, BuildInput{Invoice: inv, Order: order, Config: cfg})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRegeneration(ctx)

	res := &resolution{model: model, regenerated: true}
	if err := s.invoices.SaveDocument(ctx, inv.ID, model); err != nil {
		res.writeErr = &invoice.PersistenceWriteError{InvoiceID: inv.ID, Cause: err}
		s.metrics.RecordCacheWriteFailure(ctx)
		s.logger.Error("Failed to persist rebuilt document model",
			zap.String("invoice_id", inv.ID),
			zap.Bool("strict", s.strictWrite),
			zap.Error(err))
		return res, nil
	}

	s.logger.Info("Invoice document regenerated",
		zap.String("invoice_id", inv.ID),
		zap.String("schema_version", model.SchemaVersion))
	return res, nil
}

// render runs outside the regeneration guard
func (s *Service) render(ctx context.Context, invoiceID string, model *document.Model) ([]byte, error) {
	var (
		pdf []byte
		err error
	)
	start := time.Now()
	telemetry.Profile(ctx, telemetry.OperationLabels("invoice_render"), func(ctx context.Context) {
		pdf, err = s.renderer.Render(ctx, model)
	})
	s.metrics.RecordRender(ctx, time.Since(start), err)

	if err != nil {
		s.logger.Error("Invoice rendering failed",
			zap.String("invoice_id", invoiceID),
			zap.Error(err))
		return nil, &invoice.RenderingFailedError{InvoiceID: invoiceID, Cause: err}
	}
	return pdf, nil
}

// archivePDF stores the PDF when an archive is configured; failures are logged
// only. A cached model renders the same PDF, so it is uploaded once.
func (s *Service) archivePDF(ctx context.Context, invoiceID string, res *resolution, pdf []byte) string {
	if s.archive == nil {
		return ""
	}
	key := storage.InvoiceKey(invoiceID, res.model.SchemaVersion)
	if !res.regenerated {
		found, err := s.archive.Exists(ctx, key)
		if err == nil && found {
			return key
		}
		if err != nil {
			s.logger.Debug("Archive lookup failed, uploading again",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	if err := s.archive.Store(ctx, key, pdf); err != nil {
		s.logger.Warn("Failed to archive invoice PDF",
			zap.String("invoice_id", invoiceID),
			zap.String("key", key),
			zap.Error(err))
		return ""
	}
	return key
}

// EnsureInvoice returns the invoice for an order, creating it on first use
func (s *Service) EnsureInvoice(ctx context.Context, orderID string) (*invoice.Invoice, error) {
	inv, err := s.invoices.FindByOrderID(ctx, orderID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, invoice.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("failed to look up invoice for order: %w", err)
	}

	inv, err = invoice.NewInvoice(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		// Lost a race with another creator for the same order
		if existing, findErr := s.invoices.FindByOrderID(ctx, orderID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("order_id", orderID),
		zap.Int64("display_id", inv.DisplayID))
	return inv, nil
}

// ArchiveURL returns a download URL for an archived PDF
func (s *Service) ArchiveURL(ctx context.Context, key string) (string, error) {
	if s.archive == nil || key == "" {
		return "", nil
	}
	url, _, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to get archive download URL: %w", err)
	}
	return url, nil
}
