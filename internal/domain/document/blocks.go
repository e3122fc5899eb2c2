package document

// Text creates a text block. Newlines in s are preserved as line breaks.
func Text(style, s string) Block {
	return Block{Kind: BlockText, Style: style, Text: s}
}

// Section creates a vertical stack of blocks
func Section(style string, children ...Block) Block {
	return Block{Kind: BlockSection, Style: style, Children: children}
}

// Columns lays out its children side by side. Child widths are taken from Block.Width.
func Columns(style string, children ...Block) Block {
	return Block{Kind: BlockColumns, Style: style, Children: children}
}

// TableBlock creates a table block
func TableBlock(style string, table Table) Block {
	return Block{Kind: BlockTable, Style: style, Table: &table}
}

// ImageBlock creates an inline image block
func ImageBlock(style string, img Image) Block {
	return Block{Kind: BlockImage, Style: style, Image: &img}
}

// WithWidth returns a copy of b with its column width set ("*", "auto" or points)
func (b Block) WithWidth(width string) Block {
	b.Width = width
	return b
}

// Row builds a table row where every cell shares one style
func Row(style string, texts ...string) []Cell {
	cells := make([]Cell, len(texts))
	for i, t := range texts {
		cells[i] = Cell{Text: t, Style: style}
	}
	return cells
}
