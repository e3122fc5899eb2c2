package printing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/invoicing/backend/internal/domain/document"
)

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)
	classNamePattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	imageMIMEPattern = regexp.MustCompile(`^image/[a-z0-9.+-]+$`)
	fontNamePattern  = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{range .Blocks}}{{template "block" .}}
{{end}}</body>
</html>
{{define "block"}}
{{- if eq .Kind "text"}}<div class="{{class .Style}}">{{range $i, $l := lines .Text}}{{if $i}}<br>{{end}}{{$l}}{{end}}</div>
{{- else if eq .Kind "image"}}<div class="{{class .Style}}"><img src="{{dataURI .Image}}"{{if .Image.Width}} width="{{.Image.Width}}"{{end}} alt=""></div>
{{- else if eq .Kind "table"}}<table class="{{class .Style}}">
{{- with .Table.Widths}}<colgroup>{{range .}}<col style="{{colWidth .}}">{{end}}</colgroup>{{end}}
{{- with headRows .Table}}<thead>{{range .}}<tr>{{range .}}<th class="{{class .Style}}">{{range $i, $l := lines .Text}}{{if $i}}<br>{{end}}{{$l}}{{end}}</th>{{end}}</tr>{{end}}</thead>{{end}}
{{- with bodyRows .Table}}<tbody>{{range .}}<tr>{{range .}}<td class="{{class .Style}}">{{range $i, $l := lines .Text}}{{if $i}}<br>{{end}}{{$l}}{{end}}</td>{{end}}</tr>{{end}}</tbody>{{end}}
</table>
{{- else if eq .Kind "section"}}<div class="{{class .Style}}">{{range .Children}}{{template "block" .}}{{end}}</div>
{{- else if eq .Kind "columns"}}<div class="columns {{class .Style}}">{{range .Children}}<div class="column" style="{{flexWidth .Width}}">{{template "block" .}}</div>{{end}}</div>
{{- end}}
{{- end}}`

// DocumentHTMLRenderer lays out a document model as a standalone HTML page.
// Output is a pure function of the model.
type DocumentHTMLRenderer struct {
	tmpl *template.Template
}

// NewDocumentHTMLRenderer creates a new HTML layout renderer
func NewDocumentHTMLRenderer() *DocumentHTMLRenderer {
	funcs := template.FuncMap{
		"class":     styleClass,
		"lines":     func(s string) []string { return strings.Split(s, "\n") },
		"dataURI":   imageDataURI,
		"colWidth":  columnWidthCSS,
		"flexWidth": flexWidthCSS,
		"headRows":  headRows,
		"bodyRows":  bodyRows,
	}
	return &DocumentHTMLRenderer{
		tmpl: template.Must(template.New("document").Funcs(funcs).Parse(documentTemplate)),
	}
}

// documentView is the template input
type documentView struct {
	Title  string
	CSS    template.CSS
	Blocks []document.Block
}

// RenderHTML renders the model to HTML
func (r *DocumentHTMLRenderer) RenderHTML(m *document.Model) (string, error) {
	if m == nil {
		return "", NewRenderError(ErrCodeInvalidModel, "document model is nil", nil)
	}
	if err := m.Validate(); err != nil {
		return "", NewRenderError(ErrCodeInvalidModel, "document model is invalid", err)
	}

	view := documentView{
		Title:  m.Title,
		CSS:    template.CSS(buildStylesheet(m)),
		Blocks: m.Blocks,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to lay out document", err)
	}
	return buf.String(), nil
}

// styleClass maps a style name to its CSS class
func styleClass(name string) string {
	return "s-" + classNamePattern.ReplaceAllString(name, "")
}

// imageDataURI inlines image bytes; unknown MIME types are sent as PNG
func imageDataURI(img *document.Image) template.URL {
	if img == nil {
		return ""
	}
	mimeType := strings.ToLower(img.MIMEType)
	if !imageMIMEPattern.MatchString(mimeType) {
		mimeType = defaultAssetMIMEType
	}
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data))
}

// columnWidthCSS converts a table width ("*", "auto" or points) to a <col> style
func columnWidthCSS(width string) template.CSS {
	switch width {
	case "", "*", "auto":
		return ""
	}
	if pt, err := strconv.ParseFloat(width, 64); err == nil && pt > 0 {
		return template.CSS(fmt.Sprintf("width:%spt", formatNumber(pt)))
	}
	return ""
}

// flexWidthCSS converts a column width to a flex item style
func flexWidthCSS(width string) template.CSS {
	switch width {
	case "auto":
		return "flex:0 0 auto"
	case "", "*":
		return "flex:1 1 0"
	}
	if pt, err := strconv.ParseFloat(width, 64); err == nil && pt > 0 {
		return template.CSS(fmt.Sprintf("flex:0 0 %spt", formatNumber(pt)))
	}
	return "flex:1 1 0"
}

func headRows(t *document.Table) [][]document.Cell {
	if t == nil || t.HeaderRows <= 0 {
		return nil
	}
	return t.Rows[:min(t.HeaderRows, len(t.Rows))]
}

func bodyRows(t *document.Table) [][]document.Cell {
	if t == nil {
		return nil
	}
	return t.Rows[min(max(t.HeaderRows, 0), len(t.Rows)):]
}

// buildStylesheet emits one CSS rule per style in name order
func buildStylesheet(m *document.Model) string {
	var sb strings.Builder

	sb.WriteString("*{box-sizing:border-box;}")
	sb.WriteString("body{margin:0;")
	writeDeclarations(&sb, m.DefaultStyle)
	sb.WriteString("}")
	sb.WriteString("table{border-collapse:collapse;}")
	sb.WriteString("thead{display:table-header-group;}")
	sb.WriteString("tr{page-break-inside:avoid;}")
	sb.WriteString(".columns{display:flex;gap:16pt;align-items:flex-start;}")
	sb.WriteString(".column{min-width:0;}")

	names := make([]string, 0, len(m.Styles))
	for name := range m.Styles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		style := m.Styles[name]
		class := styleClass(name)
		sb.WriteString(".")
		sb.WriteString(class)
		sb.WriteString("{")
		writeDeclarations(&sb, style)
		sb.WriteString("}")
		if hexColorPattern.MatchString(style.Border) {
			fmt.Fprintf(&sb, ".%s td,.%s th{border:0.5pt solid %s;}", class, class, style.Border)
		}
		if style.Align == "right" {
			fmt.Fprintf(&sb, "table.%s{margin-left:auto;}", class)
		}
	}

	return sb.String()
}

func writeDeclarations(sb *strings.Builder, s document.Style) {
	if s.Font != "" && fontNamePattern.MatchString(s.Font) {
		fmt.Fprintf(sb, "font-family:'%s','Helvetica Neue',Arial,sans-serif;", s.Font)
	}
	if s.FontSize > 0 {
		fmt.Fprintf(sb, "font-size:%spt;", formatNumber(s.FontSize))
	}
	if s.Bold {
		sb.WriteString("font-weight:bold;")
	}
	if s.Italic {
		sb.WriteString("font-style:italic;")
	}
	if hexColorPattern.MatchString(s.Color) {
		fmt.Fprintf(sb, "color:%s;", s.Color)
	}
	if hexColorPattern.MatchString(s.Fill) {
		fmt.Fprintf(sb, "background-color:%s;", s.Fill)
	}
	switch s.Align {
	case "left", "right", "center":
		fmt.Fprintf(sb, "text-align:%s;", s.Align)
	}
	if s.LineHeight > 0 {
		fmt.Fprintf(sb, "line-height:%s;", formatNumber(s.LineHeight))
	}
	if s.MarginTop > 0 {
		fmt.Fprintf(sb, "margin-top:%spt;", formatNumber(s.MarginTop))
	}
	if s.MarginBottom > 0 {
		fmt.Fprintf(sb, "margin-bottom:%spt;", formatNumber(s.MarginBottom))
	}
	if s.Padding > 0 {
		fmt.Fprintf(sb, "padding:%spt;", formatNumber(s.Padding))
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
