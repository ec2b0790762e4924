package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/syntax"
)

// DateFormat is the layout of the last-modified column.
const DateFormat = "2006/01/02 15:04"

// Column captions of the table header row.
var (
	LabelFilename     = "Filename"
	LabelFilesize     = "Size"
	LabelLastModified = "Last modified"
)

// Output lays out one crawl result.
type Output struct {
	r     Renderer
	root  string
	web   string
	files []listing.FileEntry
}

// NewOutput prepares files for rendering. web is the URL template items
// are linked under; see ItemWebURL.
func NewOutput(r Renderer, root, web string, files []listing.FileEntry) *Output {
	return &Output{r: r, root: root, web: web, files: files}
}

// Render dispatches on p.Style. Unknown styles render nothing and report
// false.
func (o *Output) Render(p syntax.Params) bool {
	switch p.Style {
	case syntax.StyleList, syntax.StyleOList:
		o.RenderList(p)
	case syntax.StyleTable:
		o.RenderTable(p)
	case syntax.StylePage:
		o.RenderPage(p)
	default:
		return false
	}
	return true
}

// RenderList renders the tree as nested lists.
func (o *Output) RenderList(p syntax.Params) {
	o.r.WrapperOpen()
	o.listItems(o.files, p, 1)
	o.r.WrapperClose()
}

func (o *Output) listItems(items []listing.FileEntry, p syntax.Params, level int) {
	ordered := p.Style == syntax.StyleOList
	o.r.ListOpen(ordered)
	for _, e := range items {
		if e.TreeSize == 0 {
			continue
		}
		o.r.ListItemOpen(level)
		if e.Children != nil {
			o.r.Text(e.Name)
			o.listItems(e.Children, p, level+1)
		} else {
			o.item(e, p)
			if p.ShowSize {
				o.r.Text(p.ListSep + FormatSize(e.Size))
			}
			if p.ShowDate {
				o.r.Text(p.ListSep + FormatDate(e.ModTime))
			}
		}
		o.r.ListItemClose()
	}
	o.r.ListClose(ordered)
}

// RenderTable renders the flattened tree as a table of compound names.
func (o *Output) RenderTable(p syntax.Params) {
	o.r.WrapperOpen()
	defer o.r.WrapperClose()

	items := listing.Flatten(o.files, "")
	columns := 1
	if p.ShowSize {
		columns++
	}
	if p.ShowDate {
		columns++
	}

	o.r.TableOpen(columns)
	if p.TableHeader {
		o.r.TableHeadOpen()
		o.r.RowOpen()
		o.headerCell(LabelFilename)
		if p.ShowSize {
			o.headerCell(LabelFilesize)
		}
		if p.ShowDate {
			o.headerCell(LabelLastModified)
		}
		o.r.RowClose()
		o.r.TableHeadClose()
	}

	o.r.TableBodyOpen()
	for _, e := range items {
		if e.TreeSize == 0 {
			continue
		}
		o.r.RowOpen()
		o.r.CellOpen(AlignLeft)
		o.item(e, p)
		o.r.CellClose()
		if p.ShowSize {
			o.r.CellOpen(AlignRight)
			o.r.Text(FormatSize(e.Size))
			o.r.CellClose()
		}
		if p.ShowDate {
			o.r.CellOpen(AlignLeft)
			o.r.Text(FormatDate(e.ModTime))
			o.r.CellClose()
		}
		o.r.RowClose()
	}
	o.r.TableBodyClose()
	o.r.TableClose()
}

func (o *Output) headerCell(label string) {
	o.r.HeaderCellOpen()
	o.r.Text(label)
	o.r.HeaderCellClose()
}

// RenderPage renders each directory as a headed section holding a list of
// its files, followed by the sections of its subdirectories.
func (o *Output) RenderPage(p syntax.Params) {
	o.r.WrapperOpen()
	o.pageSection(o.files, p, 1)
	o.r.WrapperClose()
}

func (o *Output) pageSection(items []listing.FileEntry, p syntax.Params, level int) {
	var files, dirs []listing.FileEntry
	for _, e := range items {
		switch {
		case e.TreeSize == 0:
		case e.Children != nil:
			dirs = append(dirs, e)
		default:
			files = append(files, e)
		}
	}
	if len(files) > 0 {
		lp := p
		if lp.Style != syntax.StyleOList {
			lp.Style = syntax.StyleList
		}
		o.listItems(files, lp, 1)
	}
	for _, d := range dirs {
		o.r.SectionHeader(d.Name, level)
		o.r.SectionOpen(level)
		o.pageSection(d.Children, p, level+1)
		o.r.SectionClose()
	}
}

// item renders a leaf. Files become links; directories that were listed
// without being expanded are plain text, the download endpoint does not
// serve them.
func (o *Output) item(e listing.FileEntry, p syntax.Params) {
	if e.IsDir {
		o.r.Text(e.Name)
		return
	}
	o.r.Link(ItemWebURL(o.web, e, p.RandLinks), e.Name, "media mediafile mf_"+e.Ext())
}

// ItemWebURL builds the link for e under the web template. A template
// ending in '=' expects a query value and gets the local path encoded;
// anything else is treated as a URL prefix. cacheBuster appends the
// modification time as parameter t.
func ItemWebURL(web string, e listing.FileEntry, cacheBuster bool) string {
	var u string
	if strings.HasSuffix(web, "=") {
		u = web + pathres.RawURLEncode(e.Local)
	} else {
		u = web + e.Local
	}
	if cacheBuster {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "t=" + strconv.FormatInt(e.ModTime.Unix(), 10)
	}
	return u
}

// FormatSize renders a byte count for humans, e.g. "1.2 MB".
func FormatSize(n uint64) string {
	return humanize.Bytes(n)
}

func FormatDate(t time.Time) string {
	return t.Local().Format(DateFormat)
}
