// Package render turns crawl results into output through a small set of
// document primitives, so the same list, table and page layouts can target
// HTML pages or a terminal.
package render

// Align is the horizontal alignment of a table cell.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Renderer is the capability set the layouts are written against.
type Renderer interface {
	WrapperOpen()
	WrapperClose()

	ListOpen(ordered bool)
	ListClose(ordered bool)
	ListItemOpen(level int)
	ListItemClose()

	TableOpen(columns int)
	TableClose()
	TableHeadOpen()
	TableHeadClose()
	TableBodyOpen()
	TableBodyClose()
	RowOpen()
	RowClose()
	HeaderCellOpen()
	HeaderCellClose()
	CellOpen(align Align)
	CellClose()

	SectionHeader(text string, level int)
	SectionOpen(level int)
	SectionClose()

	Text(s string)
	Link(url, name, class string)
}
