package printing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/document"
)

// pointsPerMM converts document points (1/72 in) to millimeters
const pointsPerMM = 72 / 25.4

// paperSizes holds portrait dimensions in millimeters
var paperSizes = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// Margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Sheet is the physical page an engine prints on. Width and height are
// portrait dimensions; engines rotate for Landscape.
type Sheet struct {
	Paper     string
	WidthMM   float64
	HeightMM  float64
	Landscape bool
	Margins   Margins
}

// SheetForPage maps a model page setup onto a sheet. Unknown paper sizes
// print on A4.
func SheetForPage(p document.PageSetup) Sheet {
	paper := strings.ToUpper(strings.TrimSpace(p.Size))
	dims, ok := paperSizes[paper]
	if !ok {
		paper, dims = "A4", paperSizes["A4"]
	}
	return Sheet{
		Paper:     paper,
		WidthMM:   dims[0],
		HeightMM:  dims[1],
		Landscape: strings.EqualFold(p.Orientation, "landscape"),
		Margins: Margins{
			Top:    p.Margins.Top / pointsPerMM,
			Right:  p.Margins.Right / pointsPerMM,
			Bottom: p.Margins.Bottom / pointsPerMM,
			Left:   p.Margins.Left / pointsPerMM,
		},
	}
}

// PrintJob is one HTML document to print
type PrintJob struct {
	HTML        string
	Title       string
	Sheet       Sheet
	PageNumbers bool          // "page / total" footer
	Timeout     time.Duration // zero uses the engine default
}

// PDFRenderer prints HTML to PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, job *PrintJob) ([]byte, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeInvalidModel   = "INVALID_MODEL"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
	ErrCodeUnknownEngine  = "UNKNOWN_ENGINE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func (j *PrintJob) validate() error {
	if j == nil {
		return NewRenderError(ErrCodeInvalidHTML, "print job is nil", nil)
	}
	if strings.TrimSpace(j.HTML) == "" {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if j.Sheet.WidthMM <= 0 || j.Sheet.HeightMM <= 0 {
		return NewRenderError(ErrCodeInvalidHTML, "sheet has no dimensions", nil)
	}
	return nil
}

// document returns the job's HTML as a complete document
func (j *PrintJob) document() string {
	lower := strings.ToLower(j.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return j.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if j.Title != "" {
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(j.Title))
	}
	b.WriteString("</head><body>")
	b.WriteString(j.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

// jobContext bounds ctx by the job timeout, or def when the job has none
func jobContext(ctx context.Context, job *PrintJob, def time.Duration) (context.Context, context.CancelFunc, time.Duration) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = def
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, timeout
}

// engineFailure classifies a failed engine run. An expired or cancelled
// job context is a timeout whatever the engine reported.
func engineFailure(ctx context.Context, engine string, timeout time.Duration, err error) *RenderError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("%s timed out after %v", engine, timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return NewRenderError(ErrCodeRenderTimeout, engine+" rendering was cancelled", err)
	default:
		return NewRenderError(ErrCodeRenderFailed, engine+" execution failed", err)
	}
}
