package printing

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultWkhtmltopdfBinary  = "wkhtmltopdf"
	defaultWkhtmltopdfTimeout = 30 * time.Second
)

// WkhtmltopdfConfig contains configuration for the wkhtmltopdf renderer
type WkhtmltopdfConfig struct {
	// BinaryPath is looked up in PATH unless absolute
	BinaryPath string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// WkhtmltopdfRenderer pipes HTML through the wkhtmltopdf binary. The
// document goes in on stdin and the PDF comes back on stdout.
type WkhtmltopdfRenderer struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)

// NewWkhtmltopdfRenderer resolves the binary and creates the renderer
func NewWkhtmltopdfRenderer(cfg WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = defaultWkhtmltopdfBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWkhtmltopdfTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	binary, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", cfg.BinaryPath), err)
	}

	return &WkhtmltopdfRenderer{
		binary:  binary,
		timeout: cfg.Timeout,
		logger:  cfg.Logger.Named("wkhtmltopdf"),
	}, nil
}

// Render implements PDFRenderer
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, job *PrintJob) ([]byte, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	ctx, cancel, timeout := jobContext(ctx, job, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, wkhtmltopdfArgs(job)...)
	cmd.Stdin = strings.NewReader(job.document())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		failure := engineFailure(ctx, "wkhtmltopdf", timeout, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			failure.Message += ": " + msg
		}
		r.logger.Error("wkhtmltopdf failed", zap.Error(err), zap.String("stderr", stderr.String()))
		return nil, failure
	}
	if stdout.Len() == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf produced no output", nil)
	}

	r.logger.Debug("PDF rendered",
		zap.Int("bytes", stdout.Len()),
		zap.Duration("duration", time.Since(started)))
	return stdout.Bytes(), nil
}

// wkhtmltopdfArgs builds the command line for job, reading stdin and
// writing stdout
func wkhtmltopdfArgs(job *PrintJob) []string {
	mm := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "mm" }

	orientation := "Portrait"
	if job.Sheet.Landscape {
		orientation = "Landscape"
	}

	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--disable-javascript",
		"--page-width", mm(job.Sheet.WidthMM),
		"--page-height", mm(job.Sheet.HeightMM),
		"--orientation", orientation,
		"--margin-top", mm(job.Sheet.Margins.Top),
		"--margin-right", mm(job.Sheet.Margins.Right),
		"--margin-bottom", mm(job.Sheet.Margins.Bottom),
		"--margin-left", mm(job.Sheet.Margins.Left),
	}
	if job.Title != "" {
		args = append(args, "--title", job.Title)
	}
	if job.PageNumbers {
		args = append(args, "--footer-center", "[page] / [topage]", "--footer-font-size", "8")
	}
	return append(args, "-", "-")
}

// Close is a no-op; every render runs its own process
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}
