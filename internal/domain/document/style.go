package document

// CurrentSchemaVersion tags models built with the current style table and block
// layout. It must be bumped whenever StyleTable or the builder layout changes so
// that persisted models are regenerated.
const CurrentSchemaVersion = "invoice-document/3"

// Style names referenced by invoice documents
const (
	StylePage           = "page"
	StyleHeader         = "header"
	StyleLogo           = "logo"
	StyleInvoiceTitle   = "invoiceTitle"
	StyleCompanyName    = "companyName"
	StyleCompanyAddress = "companyAddress"
	StyleCompanyContact = "companyContact"
	StyleMetaTable      = "metaTable"
	StyleLabel          = "label"
	StyleValue          = "value"
	StyleSectionHeader  = "sectionHeader"
	StyleAddressText    = "addressText"
	StyleItemsTable     = "itemsTable"
	StyleTableHeader    = "tableHeader"
	StyleTableRow       = "tableRow"
	StyleTotalsTable    = "totalsTable"
	StyleTotalLabel     = "totalLabel"
	StyleTotalValue     = "totalValue"
	StyleGrandLabel     = "grandTotalLabel"
	StyleGrandValue     = "grandTotalValue"
	StyleNotesText      = "notesText"
	StyleSpacer         = "spacer"
)

// Style is a set of visual attributes. Sizes are in points; colors are hex strings.
type Style struct {
	Font         string  `json:"font,omitempty"`
	FontSize     float64 `json:"font_size,omitempty"`
	Bold         bool    `json:"bold,omitempty"`
	Italic       bool    `json:"italic,omitempty"`
	Color        string  `json:"color,omitempty"`
	Fill         string  `json:"fill,omitempty"`
	Align        string  `json:"align,omitempty"`
	LineHeight   float64 `json:"line_height,omitempty"`
	MarginTop    float64 `json:"margin_top,omitempty"`
	MarginBottom float64 `json:"margin_bottom,omitempty"`
	Padding      float64 `json:"padding,omitempty"`
	Border       string  `json:"border,omitempty"`
}

// DefaultStyle is applied to the whole document
func DefaultStyle() Style {
	return Style{Font: "Roboto", FontSize: 10, Color: "#2c3e50"}
}

// StyleTable returns a fresh copy of the static style dictionary
func StyleTable() map[string]Style {
	return map[string]Style{
		StylePage:           {},
		StyleHeader:         {MarginBottom: 20},
		StyleLogo:           {MarginBottom: 8},
		StyleInvoiceTitle:   {FontSize: 24, Bold: true, Color: "#2c3e50", Align: "right"},
		StyleCompanyName:    {FontSize: 12, Bold: true, Color: "#2c3e50", Fill: "#f8f9fa", Padding: 8, MarginBottom: 8},
		StyleCompanyAddress: {FontSize: 11, Color: "#4a5568", LineHeight: 1.3, MarginBottom: 4},
		StyleCompanyContact: {FontSize: 10, Color: "#4a5568", MarginBottom: 4},
		StyleMetaTable:      {MarginBottom: 20},
		StyleLabel:          {FontSize: 10, Color: "#6c757d"},
		StyleValue:          {FontSize: 10, Bold: true, Color: "#2c3e50"},
		StyleSectionHeader:  {FontSize: 12, Bold: true, Color: "#2c3e50", Fill: "#f8f9fa", Padding: 8, MarginBottom: 8},
		StyleAddressText:    {FontSize: 10, Color: "#495057", LineHeight: 1.3},
		StyleItemsTable:     {MarginTop: 20, Border: "#e2e8f0"},
		StyleTableHeader:    {FontSize: 10, Bold: true, Color: "#2c3e50", Fill: "#f8f9fa", Padding: 6},
		StyleTableRow:       {FontSize: 9, Color: "#495057", Padding: 6},
		StyleTotalsTable:    {MarginTop: 20, Align: "right", Border: "#e2e8f0"},
		StyleTotalLabel:     {FontSize: 10, Bold: true, Color: "#495057", Padding: 6},
		StyleTotalValue:     {FontSize: 10, Bold: true, Color: "#2c3e50", Align: "right", Padding: 6},
		StyleGrandLabel:     {FontSize: 10, Bold: true, Color: "#495057", Fill: "#f8f9fa", Padding: 6},
		StyleGrandValue:     {FontSize: 10, Bold: true, Color: "#2c3e50", Fill: "#f8f9fa", Align: "right", Padding: 6},
		StyleNotesText:      {FontSize: 10, Italic: true, Color: "#6c757d", LineHeight: 1.4, MarginBottom: 20},
		StyleSpacer:         {MarginTop: 10},
	}
}
