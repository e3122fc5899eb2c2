package printing

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/domain/document"
)

func TestWkhtmltopdfArgs(t *testing.T) {
	args := wkhtmltopdfArgs(&PrintJob{
		HTML:        "<p>x</p>",
		Title:       "INV-000001",
		PageNumbers: true,
		Sheet: Sheet{
			Paper: "LETTER", WidthMM: 215.9, HeightMM: 279.4, Landscape: true,
			Margins: Margins{Top: 21.2, Right: 14.1, Bottom: 21.2, Left: 14.1},
		},
	})

	assert.Subset(t, args, []string{"--page-width", "215.9mm", "--page-height", "279.4mm"})
	assert.Subset(t, args, []string{"--orientation", "Landscape"})
	assert.Subset(t, args, []string{"--margin-top", "21.2mm", "--margin-left", "14.1mm"})
	assert.Subset(t, args, []string{"--title", "INV-000001"})
	assert.Contains(t, args, "--disable-javascript")
	assert.Contains(t, args, "[page] / [topage]")
	assert.Equal(t, []string{"-", "-"}, args[len(args)-2:])
}

func TestWkhtmltopdfArgs_Minimal(t *testing.T) {
	args := wkhtmltopdfArgs(&PrintJob{HTML: "<p>x</p>", Sheet: Sheet{WidthMM: 210, HeightMM: 297}})

	assert.Subset(t, args, []string{"--orientation", "Portrait"})
	assert.NotContains(t, args, "--title")
	assert.NotContains(t, args, "--footer-center")
}

func TestNewWkhtmltopdfRenderer_MissingBinary(t *testing.T) {
	_, err := NewWkhtmltopdfRenderer(WkhtmltopdfConfig{BinaryPath: "/nonexistent/wkhtmltopdf"})

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeBinaryNotFound, renderErr.Code)
}

func TestWkhtmltopdfRenderer_Render(t *testing.T) {
	if _, err := exec.LookPath("wkhtmltopdf"); err != nil || os.Getenv("WKHTMLTOPDF_TEST") == "" {
		t.Skip("set WKHTMLTOPDF_TEST=1 with wkhtmltopdf on PATH")
	}

	r, err := NewWkhtmltopdfRenderer(WkhtmltopdfConfig{})
	require.NoError(t, err)

	pdf, err := r.Render(context.Background(), &PrintJob{
		HTML:  "<h1>Invoice</h1>",
		Sheet: SheetForPage(document.DefaultPageSetup()),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
