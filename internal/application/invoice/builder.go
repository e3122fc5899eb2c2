package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/invoicing/backend/internal/domain/document"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared/valueobject"
	"github.com/invoicing/backend/internal/infrastructure/printing"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
)

// Static labels printed on invoices
const (
	labelTitle           = "Invoice"
	labelInvoiceNumber   = "Invoice number:"
	labelInvoiceDate     = "Invoice date:"
	labelOrderNumber     = "Order number:"
	labelOrderDate       = "Order date:"
	labelBillingAddress  = "Billing address"
	labelShippingAddress = "Shipping address"
	labelItem            = "Item"
	labelQuantity        = "Quantity"
	labelUnitPrice       = "Unit price"
	labelLineTotal       = "Total"
	labelSubtotal        = "Subtotal"
	labelTax             = "Tax"
	labelShipping        = "Shipping"
	labelDiscount        = "Discount"
	labelGrandTotal      = "Total"
	labelNotes           = "Notes"

	placeholderItemTitle = "Unknown Item"
	noBillingAddress     = "No billing address provided"
	noShippingAddress    = "No shipping address provided"

	// en-US short date
	dateLayout = "1/2/2006"
	logoWidth  = 120
)

// AssetEmbedder fetches remote assets for inlining
type AssetEmbedder interface {
	Embed(ctx context.Context, url string) (*printing.EmbeddedAsset, error)
}

// BuildInput groups everything a document is built from
type BuildInput struct {
	Invoice *invoice.Invoice
	Order   *invoice.OrderSnapshot
	// Config is nil when no tenant configuration has been saved
	Config *invoice.Config
}

// Builder turns an order snapshot and tenant configuration into a document model.
// For identical inputs and identical asset results the output is identical.
type Builder struct {
	assets  AssetEmbedder
	metrics *telemetry.InvoiceMetrics
	logger  *zap.Logger
}

// NewBuilder creates a new document builder
func NewBuilder(assets AssetEmbedder, metrics *telemetry.InvoiceMetrics, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		assets:  assets,
		metrics: metrics,
		logger:  logger,
	}
}

// Build produces the document model for one invoice
func (b *Builder) Build(ctx context.Context, in BuildInput) (*document.Model, error) {
	if in.Invoice == nil {
		return nil, fmt.Errorf("invoice is required to build a document")
	}
	if err := in.Order.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.Start(ctx, "invoice_document", "build",
		telemetry.AttrInvoiceID.String(in.Invoice.ID),
		telemetry.AttrOrderID.String(in.Order.ID),
		telemetry.AttrItemCount.Int(len(in.Order.Items)),
	)
	defer span.End()

	cfg := in.Config
	if cfg == nil {
		cfg = &invoice.Config{}
	}

	pass := &buildPass{
		builder:  b,
		invoice:  in.Invoice,
		order:    in.Order,
		config:   cfg,
		assets:   make(map[string]*printing.EmbeddedAsset),
		currency: in.Order.CurrencyCode,
	}

	m := document.NewModel()
	m.Title = in.Invoice.Number()
	m.Append(
		pass.header(ctx),
		pass.companyAndMetadata(),
		pass.addresses(),
		pass.lineItems(),
		pass.totals(),
	)
	if notes := strings.TrimSpace(cfg.Notes); notes != "" {
		m.Append(document.Section(document.StylePage,
			document.Text(document.StyleSectionHeader, labelNotes),
			document.Text(document.StyleNotesText, notes),
		))
	}

	if err := m.Validate(); err != nil {
		telemetry.Fail(span, err)
		return nil, fmt.Errorf("built document is invalid: %w", err)
	}
	return m, nil
}

// buildPass holds the state of a single Build call
type buildPass struct {
	builder  *Builder
	invoice  *invoice.Invoice
	order    *invoice.OrderSnapshot
	config   *invoice.Config
	currency string

	// fetched assets by URL; nil entries record failures
	assets         map[string]*printing.EmbeddedAsset
	currencyWarned bool
}

func (p *buildPass) header(ctx context.Context) document.Block {
	left := document.Text(document.StylePage, "")
	if p.config.HasLogo() {
		if asset := p.embed(ctx, strings.TrimSpace(p.config.CompanyLogo)); asset != nil {
			left = document.ImageBlock(document.StyleLogo, document.Image{
				MIMEType: asset.MIMEType,
				Data:     asset.Data,
				Width:    logoWidth,
			})
		}
	}

	return document.Columns(document.StyleHeader,
		left.WithWidth("*"),
		document.Text(document.StyleInvoiceTitle, labelTitle).WithWidth("auto"),
	)
}

// embed fetches url once per pass; failures are logged and yield nil
func (p *buildPass) embed(ctx context.Context, url string) *printing.EmbeddedAsset {
	if asset, seen := p.assets[url]; seen {
		return asset
	}
	if p.builder.assets == nil {
		p.assets[url] = nil
		return nil
	}

	asset, err := p.builder.assets.Embed(ctx, url)
	if err != nil {
		p.builder.metrics.RecordAssetFailure(ctx)
		telemetry.Event(ctx, "asset_unavailable", telemetry.AttrAssetURL.String(url))
		p.builder.logger.Warn("Asset unavailable, rendering document without it",
			zap.String("invoice_id", p.invoice.ID),
			zap.String("url", url),
			zap.Error(err))
		asset = nil
	}
	p.assets[url] = asset
	return asset
}

func (p *buildPass) companyAndMetadata() document.Block {
	var company []document.Block
	if v := strings.TrimSpace(p.config.CompanyName); v != "" {
		company = append(company, document.Text(document.StyleCompanyName, v))
	}
	if v := strings.TrimSpace(p.config.CompanyAddress); v != "" {
		company = append(company, document.Text(document.StyleCompanyAddress, v))
	}
	if v := strings.TrimSpace(p.config.CompanyPhone); v != "" {
		company = append(company, document.Text(document.StyleCompanyContact, v))
	}
	if v := strings.TrimSpace(p.config.CompanyEmail); v != "" {
		company = append(company, document.Text(document.StyleCompanyContact, v))
	}

	metadata := document.Table{
		Widths: []string{"80", "120"},
		Rows: [][]document.Cell{
			metaRow(labelInvoiceNumber, p.invoice.Number()),
			metaRow(labelInvoiceDate, p.invoice.CreatedAt.UTC().Format(dateLayout)),
			metaRow(labelOrderNumber, invoice.FormatOrderNumber(p.order.DisplayID)),
			metaRow(labelOrderDate, p.order.CreatedAt.UTC().Format(dateLayout)),
		},
	}

	return document.Columns(document.StylePage,
		document.Section(document.StylePage, company...).WithWidth("*"),
		document.TableBlock(document.StyleMetaTable, metadata).WithWidth("auto"),
	)
}

func metaRow(label, value string) []document.Cell {
	return []document.Cell{
		{Text: label, Style: document.StyleLabel},
		{Text: value, Style: document.StyleValue},
	}
}

func (p *buildPass) addresses() document.Block {
	billing := noBillingAddress
	if p.order.BillingAddress != nil {
		billing = FormatAddress(p.order.BillingAddress)
	}
	shipping := noShippingAddress
	if p.order.ShippingAddress != nil {
		shipping = FormatAddress(p.order.ShippingAddress)
	}

	return document.Columns(document.StylePage,
		document.Section(document.StylePage,
			document.Text(document.StyleSectionHeader, labelBillingAddress),
			document.Text(document.StyleAddressText, billing),
		).WithWidth("*"),
		document.Section(document.StylePage,
			document.Text(document.StyleSectionHeader, labelShippingAddress),
			document.Text(document.StyleAddressText, shipping),
		).WithWidth("*"),
	)
}

func (p *buildPass) lineItems() document.Block {
	rows := make([][]document.Cell, 0, len(p.order.Items)+1)
	rows = append(rows, document.Row(document.StyleTableHeader,
		labelItem, labelQuantity, labelUnitPrice, labelLineTotal))

	for _, item := range p.order.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = placeholderItemTitle
		}
		rows = append(rows, document.Row(document.StyleTableRow,
			title,
			strconv.FormatInt(item.Quantity, 10),
			p.money(item.UnitPrice),
			p.money(item.Total),
		))
	}

	return document.TableBlock(document.StyleItemsTable, document.Table{
		Widths:     []string{"*", "auto", "auto", "auto"},
		HeaderRows: 1,
		Rows:       rows,
	})
}

func (p *buildPass) totals() document.Block {
	row := func(label string, amount valueobject.Amount) []document.Cell {
		return []document.Cell{
			{Text: label, Style: document.StyleTotalLabel},
			{Text: p.money(amount), Style: document.StyleTotalValue},
		}
	}

	return document.TableBlock(document.StyleTotalsTable, document.Table{
		Widths: []string{"auto", "auto"},
		Rows: [][]document.Cell{
			row(labelSubtotal, p.order.Subtotal),
			row(labelTax, p.order.TaxTotal),
			row(labelShipping, p.order.ShippingTotal()),
			row(labelDiscount, p.order.DiscountTotal),
			{
				{Text: labelGrandTotal, Style: document.StyleGrandLabel},
				{Text: p.money(p.order.Total), Style: document.StyleGrandValue},
			},
		},
	})
}

// money formats an amount in the order currency, warning once per pass on fallback
func (p *buildPass) money(a valueobject.Amount) string {
	s, ok := printing.FormatCurrency(a.Decimal(), p.currency)
	if !ok && !p.currencyWarned {
		p.currencyWarned = true
		p.builder.logger.Warn("Unknown currency code, using plain number format",
			zap.String("invoice_id", p.invoice.ID),
			zap.String("currency_code", p.currency))
	}
	return s
}

// FormatAddress renders an address as newline-separated lines:
// name, street lines, "City, Province Postal", country and phone.
// Blank parts are omitted.
func FormatAddress(a *invoice.Address) string {
	if a == nil {
		return ""
	}

	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	add(a.FirstName + " " + a.LastName)
	add(a.Address1)
	add(a.Address2)

	region := strings.TrimSpace(strings.TrimSpace(a.Province) + " " + strings.TrimSpace(a.PostalCode))
	city := strings.TrimSpace(a.City)
	switch {
	case city != "" && region != "":
		add(city + ", " + region)
	default:
		add(city + region)
	}

	add(strings.ToUpper(a.CountryCode))
	add(a.Phone)

	return strings.Join(lines, "\n")
}
