package printing

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Supported PDF engines
const (
	EngineChromedp    = "chromedp"
	EngineWkhtmltopdf = "wkhtmltopdf"
)

// EngineConfig selects and configures the HTML to PDF engine
type EngineConfig struct {
	Engine          string
	Timeout         time.Duration
	ChromeRemoteURL string
	ChromeNoSandbox bool
	WkhtmltopdfPath string
}

// NewPDFRenderer creates the configured PDF engine. An empty engine name
// selects chromedp.
func NewPDFRenderer(cfg EngineConfig, logger *zap.Logger) (PDFRenderer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineChromedp:
		return NewChromedpRenderer(ChromedpConfig{
			Timeout:   cfg.Timeout,
			RemoteURL: cfg.ChromeRemoteURL,
			NoSandbox: cfg.ChromeNoSandbox,
			Logger:    logger,
		})
	case EngineWkhtmltopdf:
		return NewWkhtmltopdfRenderer(WkhtmltopdfConfig{
			BinaryPath: cfg.WkhtmltopdfPath,
			Timeout:    cfg.Timeout,
			Logger:     logger,
		})
	default:
		return nil, NewRenderError(ErrCodeUnknownEngine, fmt.Sprintf("unknown PDF engine %q", cfg.Engine), nil)
	}
}
