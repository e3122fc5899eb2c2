package invoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicing/backend/internal/domain/document"
)

func TestNewInvoice(t *testing.T) {
	inv, err := NewInvoice("order_01")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inv.ID, IDPrefix))
	assert.Equal(t, "order_01", inv.OrderID)
	assert.Nil(t, inv.Document)
	assert.False(t, inv.CreatedAt.IsZero())

	_, err = NewInvoice("")
	assert.Error(t, err)
}

func TestInvoice_Number(t *testing.T) {
	assert.Equal(t, "INV-000042", (&Invoice{DisplayID: 42}).Number())
	assert.Equal(t, "INV-1234567", (&Invoice{DisplayID: 1234567}).Number())
	assert.Equal(t, "000007", FormatOrderNumber(7))
}

func TestInvoice_ReplaceDocument(t *testing.T) {
	inv, err := NewInvoice("order_01")
	require.NoError(t, err)
	before := inv.UpdatedAt

	m := document.NewModel()
	inv.ReplaceDocument(m)

	assert.Same(t, m, inv.Document)
	assert.False(t, inv.UpdatedAt.Before(before))
}

func TestConfig_Apply(t *testing.T) {
	cfg := &Config{CompanyName: "Acme", Notes: "Thanks"}

	name := "  Acme Ltd "
	empty := ""
	changed := cfg.Apply(ConfigUpdate{CompanyName: &name, Notes: &empty})

	assert.True(t, changed)
	assert.Equal(t, "Acme Ltd", cfg.CompanyName)
	assert.Equal(t, "", cfg.Notes)

	assert.False(t, cfg.Apply(ConfigUpdate{CompanyName: &name}))
	assert.False(t, cfg.HasLogo())

	logo := "https://cdn.example.com/logo.png"
	cfg.Apply(ConfigUpdate{CompanyLogo: &logo})
	assert.True(t, cfg.HasLogo())
}
