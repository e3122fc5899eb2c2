package printing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/document"
)

// DocumentRenderer turns a document model into PDF bytes
type DocumentRenderer interface {
	Render(ctx context.Context, m *document.Model) ([]byte, error)
}

// ModelRenderer lays out a model as HTML and hands it to a PDF engine
type ModelRenderer struct {
	layout  *DocumentHTMLRenderer
	engine  PDFRenderer
	timeout time.Duration
	logger  *zap.Logger
}

// ModelRendererOption configures a ModelRenderer
type ModelRendererOption func(*ModelRenderer)

// WithRenderTimeout overrides the engine's default timeout per document
func WithRenderTimeout(d time.Duration) ModelRendererOption {
	return func(r *ModelRenderer) {
		r.timeout = d
	}
}

// NewModelRenderer creates a renderer that chains the HTML layout and a PDF engine
func NewModelRenderer(layout *DocumentHTMLRenderer, engine PDFRenderer, logger *zap.Logger, opts ...ModelRendererOption) *ModelRenderer {
	if layout == nil {
		layout = NewDocumentHTMLRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ModelRenderer{
		layout: layout,
		engine: engine,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces PDF bytes for the model
func (r *ModelRenderer) Render(ctx context.Context, m *document.Model) ([]byte, error) {
	html, err := r.layout.RenderHTML(m)
	if err != nil {
		return nil, err
	}

	pdf, err := r.engine.Render(ctx, &PrintJob{
		HTML:        html,
		Title:       m.Title,
		Sheet:       SheetForPage(m.Page),
		PageNumbers: true,
		Timeout:     r.timeout,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Document rendered", zap.String("title", m.Title), zap.Int("bytes", len(pdf)))
	return pdf, nil
}

// Ensure ModelRenderer implements DocumentRenderer
var _ DocumentRenderer = (*ModelRenderer)(nil)
