package render

import (
	"fmt"
	"html"
	"strings"
)

// HTMLRenderer writes escaped XHTML fragments into an in-memory buffer.
type HTMLRenderer struct {
	b strings.Builder
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

// String returns everything written so far.
func (h *HTMLRenderer) String() string {
	return h.b.String()
}

func (h *HTMLRenderer) WrapperOpen()  { h.b.WriteString(`<div class="filelist-plugin">`) }
func (h *HTMLRenderer) WrapperClose() { h.b.WriteString("</div>\n") }

func (h *HTMLRenderer) ListOpen(ordered bool) {
	if ordered {
		h.b.WriteString("\n<ol>\n")
		return
	}
	h.b.WriteString("\n<ul>\n")
}

func (h *HTMLRenderer) ListClose(ordered bool) {
	if ordered {
		h.b.WriteString("</ol>\n")
		return
	}
	h.b.WriteString("</ul>\n")
}

func (h *HTMLRenderer) ListItemOpen(level int) {
	fmt.Fprintf(&h.b, `<li class="level%d"><div class="li">`, level)
}

func (h *HTMLRenderer) ListItemClose() { h.b.WriteString("</div></li>\n") }

func (h *HTMLRenderer) TableOpen(columns int) {
	fmt.Fprintf(&h.b, "\n<div class=\"table\"><table class=\"inline\" data-columns=\"%d\">\n", columns)
}

func (h *HTMLRenderer) TableClose()     { h.b.WriteString("</table></div>\n") }
func (h *HTMLRenderer) TableHeadOpen()  { h.b.WriteString("<thead>\n") }
func (h *HTMLRenderer) TableHeadClose() { h.b.WriteString("</thead>\n") }
func (h *HTMLRenderer) TableBodyOpen()  { h.b.WriteString("<tbody>\n") }
func (h *HTMLRenderer) TableBodyClose() { h.b.WriteString("</tbody>\n") }
func (h *HTMLRenderer) RowOpen()        { h.b.WriteString("<tr>") }
func (h *HTMLRenderer) RowClose()       { h.b.WriteString("</tr>\n") }
func (h *HTMLRenderer) HeaderCellOpen() { h.b.WriteString("<th>") }
func (h *HTMLRenderer) HeaderCellClose() {
	h.b.WriteString("</th>")
}

func (h *HTMLRenderer) CellOpen(align Align) {
	if align == AlignRight {
		h.b.WriteString(`<td class="rightalign">`)
		return
	}
	h.b.WriteString("<td>")
}

func (h *HTMLRenderer) CellClose() { h.b.WriteString("</td>") }

func (h *HTMLRenderer) SectionHeader(text string, level int) {
	level = min(max(level, 1), 5)
	fmt.Fprintf(&h.b, "\n<h%d>%s</h%d>\n", level, html.EscapeString(text), level)
}

func (h *HTMLRenderer) SectionOpen(level int) {
	fmt.Fprintf(&h.b, "<div class=\"level%d\">\n", min(max(level, 1), 5))
}

func (h *HTMLRenderer) SectionClose() { h.b.WriteString("</div>\n") }

func (h *HTMLRenderer) Text(s string) { h.b.WriteString(html.EscapeString(s)) }

func (h *HTMLRenderer) Link(url, name, class string) {
	u := html.EscapeString(url)
	fmt.Fprintf(&h.b, `<a href="%s" class="%s" title="%s" rel="nofollow">%s</a>`,
		u, html.EscapeString(class), u, html.EscapeString(name))
}
