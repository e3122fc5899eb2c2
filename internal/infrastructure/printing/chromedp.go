package printing

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	// page number footers are clipped below this bottom margin
	minFooterMarginMM = 10
	mmPerInch         = 25.4
	pageNumberFooter  = `<div style="width:100%;text-align:center;font-size:8px;color:#6c757d;">` +
		`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	Timeout time.Duration
	// RemoteURL points at a running Chrome's DevTools endpoint. Empty
	// launches a local headless browser.
	RemoteURL string
	// NoSandbox is required when Chrome runs as root in a container
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML through headless Chrome. One browser is
// shared and every job gets its own tab.
type ChromedpRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer creates the browser allocator. The browser itself
// starts with the first job.
func NewChromedpRenderer(cfg ChromedpConfig) (*ChromedpRenderer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultChromeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		timeout: cfg.Timeout,
		logger:  cfg.Logger.Named("chromedp"),
	}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// Render implements PDFRenderer
func (r *ChromedpRenderer) Render(ctx context.Context, job *PrintJob) ([]byte, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	ctx, cancel, timeout := jobContext(ctx, job, r.timeout)
	defer cancel()

	tabCtx, closeTab := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	content := job.document()
	params := printToPDF(job)

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, content).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, engineFailure(ctx, "chromedp", timeout, err)
	}
	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp produced no output", nil)
	}

	r.logger.Debug("PDF rendered",
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(started)))
	return pdf, nil
}

// printToPDF maps a job onto DevTools print parameters, which are in inches
func printToPDF(job *PrintJob) *page.PrintToPDFParams {
	in := func(mm float64) float64 { return mm / mmPerInch }
	s := job.Sheet

	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithLandscape(s.Landscape).
		WithPaperWidth(in(s.WidthMM)).
		WithPaperHeight(in(s.HeightMM)).
		WithMarginTop(in(s.Margins.Top)).
		WithMarginRight(in(s.Margins.Right)).
		WithMarginBottom(in(s.Margins.Bottom)).
		WithMarginLeft(in(s.Margins.Left))

	if job.PageNumbers {
		// an empty header template would print the title and date
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate("<span></span>").
			WithFooterTemplate(pageNumberFooter).
			WithMarginBottom(in(max(s.Margins.Bottom, minFooterMarginMM)))
	}
	return params
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}
