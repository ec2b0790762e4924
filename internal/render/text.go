package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// TextRenderer draws lists as an indented tree and tables as aligned
// columns on a terminal.
type TextRenderer struct {
	w        io.Writer
	link     *color.Color
	header   *color.Color
	showURLs bool

	lists    []listState
	lineOpen bool

	table *tabwriter.Writer
	cells []string
	cell  *strings.Builder
}

// NewTextRenderer writes to w. colored forces color on or off regardless of
// whether w is a terminal. With showURLs set, links are followed by their
// target.
func NewTextRenderer(w io.Writer, colored, showURLs bool) *TextRenderer {
	t := &TextRenderer{
		w:        w,
		link:     color.New(color.FgCyan),
		header:   color.New(color.Bold, color.FgYellow),
		showURLs: showURLs,
	}
	for _, c := range []*color.Color{t.link, t.header} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return t
}

type listState struct {
	ordered bool
	n       int
}

func (t *TextRenderer) write(s string) {
	if t.cell != nil {
		t.cell.WriteString(s)
		return
	}
	io.WriteString(t.w, s)
	t.lineOpen = true
}

func (t *TextRenderer) endLine() {
	if t.lineOpen {
		io.WriteString(t.w, "\n")
		t.lineOpen = false
	}
}

func (t *TextRenderer) WrapperOpen() {}

func (t *TextRenderer) WrapperClose() { t.endLine() }

func (t *TextRenderer) ListOpen(ordered bool) {
	t.endLine()
	t.lists = append(t.lists, listState{ordered: ordered})
}

func (t *TextRenderer) ListClose(ordered bool) {
	t.endLine()
	if len(t.lists) > 0 {
		t.lists = t.lists[:len(t.lists)-1]
	}
}

func (t *TextRenderer) ListItemOpen(level int) {
	t.endLine()
	if len(t.lists) == 0 {
		t.lists = append(t.lists, listState{})
	}
	cur := &t.lists[len(t.lists)-1]
	cur.n++
	t.write(strings.Repeat("  ", len(t.lists)-1))
	if cur.ordered {
		t.write(fmt.Sprintf("%d. ", cur.n))
		return
	}
	t.write("- ")
}

func (t *TextRenderer) ListItemClose() { t.endLine() }

func (t *TextRenderer) TableOpen(columns int) {
	t.endLine()
	t.table = tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
}

func (t *TextRenderer) TableClose() {
	if t.table != nil {
		t.table.Flush()
		t.table = nil
	}
}

func (t *TextRenderer) TableHeadOpen()  {}
func (t *TextRenderer) TableHeadClose() {}
func (t *TextRenderer) TableBodyOpen()  {}
func (t *TextRenderer) TableBodyClose() {}

func (t *TextRenderer) RowOpen() { t.cells = t.cells[:0] }

func (t *TextRenderer) RowClose() {
	if t.table == nil {
		return
	}
	fmt.Fprintln(t.table, strings.Join(t.cells, "\t")+"\t")
}

func (t *TextRenderer) HeaderCellOpen() { t.cell = &strings.Builder{} }

func (t *TextRenderer) HeaderCellClose() {
	t.cells = append(t.cells, strings.ToUpper(t.cell.String()))
	t.cell = nil
}

func (t *TextRenderer) CellOpen(align Align) { t.cell = &strings.Builder{} }

func (t *TextRenderer) CellClose() {
	t.cells = append(t.cells, t.cell.String())
	t.cell = nil
}

func (t *TextRenderer) SectionHeader(text string, level int) {
	t.endLine()
	t.write(t.header.Sprint(strings.Repeat("#", min(max(level, 1), 5)) + " " + text))
	t.endLine()
}

func (t *TextRenderer) SectionOpen(level int) {}

func (t *TextRenderer) SectionClose() { t.endLine() }

func (t *TextRenderer) Text(s string) { t.write(s) }

func (t *TextRenderer) Link(url, name, class string) {
	t.write(t.link.Sprint(name))
	if t.showURLs {
		t.write(" <" + url + ">")
	}
}
