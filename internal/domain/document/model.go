// Package document defines the renderer-neutral document model produced for
// invoices, the static style table it references and the policy that decides
// whether a persisted model can still be reused.
package document

import (
	"encoding/json"
	"fmt"
)

// BlockKind identifies the type of a document block
type BlockKind string

// Block kinds
const (
	BlockText    BlockKind = "text"
	BlockTable   BlockKind = "table"
	BlockImage   BlockKind = "image"
	BlockSection BlockKind = "section"
	BlockColumns BlockKind = "columns"
)

// IsValid returns true if the kind is known
func (k BlockKind) IsValid() bool {
	switch k {
	case BlockText, BlockTable, BlockImage, BlockSection, BlockColumns:
		return true
	}
	return false
}

// Margins are expressed in points (1/72 inch)
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// PageSetup describes the physical page
type PageSetup struct {
	Size        string  `json:"size"`
	Orientation string  `json:"orientation"`
	Margins     Margins `json:"margins"`
}

// DefaultPageSetup returns A4 portrait with 40pt side and 60pt top/bottom margins
func DefaultPageSetup() PageSetup {
	return PageSetup{
		Size:        "A4",
		Orientation: "PORTRAIT",
		Margins:     Margins{Top: 60, Right: 40, Bottom: 60, Left: 40},
	}
}

// Image is an inlined raster asset. Data is base64-encoded in JSON.
type Image struct {
	MIMEType string  `json:"mime_type"`
	Data     []byte  `json:"data"`
	Width    float64 `json:"width,omitempty"`
}

// Cell is a single table cell
type Cell struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

// Table is a grid of cells. The first HeaderRows rows repeat on page breaks.
type Table struct {
	Widths     []string `json:"widths,omitempty"`
	HeaderRows int      `json:"header_rows,omitempty"`
	Rows       [][]Cell `json:"rows"`
}

// Block is a node of the document tree. Which payload field is set depends on Kind:
// Text for text, Table for table, Image for image, Children for section and columns.
type Block struct {
	Kind     BlockKind `json:"kind"`
	Style    string    `json:"style"`
	Width    string    `json:"width,omitempty"`
	Text     string    `json:"text,omitempty"`
	Table    *Table    `json:"table,omitempty"`
	Image    *Image    `json:"image,omitempty"`
	Children []Block   `json:"children,omitempty"`
}

// Model is a complete, self-contained description of a rendered document.
// It holds no external references, so it can be persisted and rendered later.
type Model struct {
	SchemaVersion string           `json:"schema_version"`
	Title         string           `json:"title,omitempty"`
	Page          PageSetup        `json:"page"`
	DefaultStyle  Style            `json:"default_style"`
	Styles        map[string]Style `json:"styles"`
	Blocks        []Block          `json:"blocks"`
}

// NewModel creates an empty model stamped with the current schema version and style table
func NewModel() *Model {
	return &Model{
		SchemaVersion: CurrentSchemaVersion,
		Page:          DefaultPageSetup(),
		DefaultStyle:  DefaultStyle(),
		Styles:        StyleTable(),
		Blocks:        []Block{},
	}
}

// Append adds top-level blocks in order
func (m *Model) Append(blocks ...Block) {
	m.Blocks = append(m.Blocks, blocks...)
}

// Walk visits every block depth-first in document order
func (m *Model) Walk(fn func(b *Block)) {
	for i := range m.Blocks {
		walkBlock(&m.Blocks[i], fn)
	}
}

func walkBlock(b *Block, fn func(b *Block)) {
	fn(b)
	for i := range b.Children {
		walkBlock(&b.Children[i], fn)
	}
}

// Validate checks that every block has a known kind, carries its payload and
// references a style that exists in the model's style dictionary.
func (m *Model) Validate() error {
	var err error
	m.Walk(func(b *Block) {
		if err != nil {
			return
		}
		if !b.Kind.IsValid() {
			err = fmt.Errorf("unknown block kind %q", b.Kind)
			return
		}
		if _, ok := m.Styles[b.Style]; !ok {
			err = fmt.Errorf("%s block references unknown style %q", b.Kind, b.Style)
			return
		}
		switch b.Kind {
		case BlockTable:
			if b.Table == nil {
				err = fmt.Errorf("table block has no table")
				return
			}
			for _, row := range b.Table.Rows {
				for _, cell := range row {
					if _, ok := m.Styles[cell.Style]; !ok {
						err = fmt.Errorf("table cell references unknown style %q", cell.Style)
						return
					}
				}
			}
		case BlockImage:
			if b.Image == nil || len(b.Image.Data) == 0 {
				err = fmt.Errorf("image block has no data")
			}
		}
	})
	return err
}

// Marshal serializes the model to JSON
func Marshal(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("document model is nil")
	}
	return json.Marshal(m)
}

// Unmarshal parses a persisted model. Documents written by older layouts
// decode without a schema version and are therefore stale.
func Unmarshal(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document model: %w", err)
	}
	return &m, nil
}
