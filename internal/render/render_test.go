package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/syntax"
)

var mtime = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func file(name, local string, size uint64) listing.FileEntry {
	return listing.FileEntry{Name: name, Local: local, Size: size, ModTime: mtime, TreeSize: 1}
}

func sampleTree() []listing.FileEntry {
	b := file("b.txt", "sub/b.txt", 2048)
	return []listing.FileEntry{
		file("a.txt", "a.txt", 10),
		{Name: "Sub <dir>", Local: "sub", IsDir: true, Children: []listing.FileEntry{b}, TreeSize: 1},
		{Name: "empty", Local: "empty", IsDir: true, Children: []listing.FileEntry{}, TreeSize: 0},
	}
}

func params(flags map[string]string) syntax.Params {
	return syntax.NewParams(flags)
}

func TestItemWebURL(t *testing.T) {
	e := file("x", "dir/my file.pdf", 1)
	assert.Equal(t, "/file?root=%2Fdata%2F&file=dir%2Fmy%20file.pdf",
		ItemWebURL("/file?root=%2Fdata%2F&file=", e, false))
	assert.Equal(t, "http://x/dir/my file.pdf", ItemWebURL("http://x/", e, false))

	ts := "1710000000"
	e.ModTime = time.Unix(1710000000, 0)
	assert.Equal(t, "http://x/dir/my file.pdf?t="+ts, ItemWebURL("http://x/", e, true))
	assert.Equal(t, "/f?file=dir%2Fmy%20file.pdf&t="+ts, ItemWebURL("/f?file=", e, true))
}

func TestRenderListHTML(t *testing.T) {
	h := NewHTMLRenderer()
	NewOutput(h, "/data/", "http://x/", sampleTree()).RenderList(params(map[string]string{"showsize": "1"}))
	out := h.String()

	assert.True(t, strings.HasPrefix(out, `<div class="filelist-plugin">`))
	assert.Contains(t, out, `<a href="http://x/a.txt" class="media mediafile mf_txt" title="http://x/a.txt" rel="nofollow">a.txt</a>, 10 B`)
	assert.Contains(t, out, "Sub &lt;dir&gt;")
	assert.Contains(t, out, `<li class="level2">`)
	assert.Contains(t, out, "sub/b.txt")
	assert.Contains(t, out, "2.0 kB")
	assert.NotContains(t, out, "empty")
	assert.Equal(t, 2, strings.Count(out, "<ul>"))
	assert.NotContains(t, out, "<ol>")
}

func TestRenderOrderedList(t *testing.T) {
	h := NewHTMLRenderer()
	NewOutput(h, "/data/", "http://x/", sampleTree()).Render(params(map[string]string{"style": "olist", "showdate": "1", "listsep": " | "}))
	out := h.String()
	assert.Equal(t, 2, strings.Count(out, "<ol>"))
	assert.Contains(t, out, " | "+FormatDate(mtime))
}

func TestRenderUnexpandedDirectoryIsText(t *testing.T) {
	tree := []listing.FileEntry{{Name: "sub", Local: "sub", IsDir: true, TreeSize: 1}}
	h := NewHTMLRenderer()
	NewOutput(h, "/data/", "http://x/", tree).RenderList(params(nil))
	assert.Contains(t, h.String(), `<div class="li">sub</div>`)
	assert.NotContains(t, h.String(), "<a ")
}

func TestRenderTableHTML(t *testing.T) {
	h := NewHTMLRenderer()
	ok := NewOutput(h, "/data/", "/file?root=r&file=", sampleTree()).Render(params(map[string]string{
		"style": "table", "tableheader": "1", "showsize": "1", "showdate": "1",
	}))
	require.True(t, ok)
	out := h.String()

	assert.Contains(t, out, `data-columns="3"`)
	assert.Contains(t, out, "<thead>")
	assert.Contains(t, out, "<th>Filename</th><th>Size</th><th>Last modified</th>")
	assert.Contains(t, out, ">Sub &lt;dir&gt;/b.txt</a>")
	assert.Contains(t, out, `href="/file?root=r&amp;file=sub%2Fb.txt"`)
	assert.Contains(t, out, `<td class="rightalign">2.0 kB</td>`)
	assert.Equal(t, 3, strings.Count(out, "<tr>"))
}

func TestRenderTableWithoutHeader(t *testing.T) {
	h := NewHTMLRenderer()
	NewOutput(h, "/data/", "http://x/", sampleTree()).RenderTable(params(nil))
	out := h.String()
	assert.NotContains(t, out, "<thead>")
	assert.Contains(t, out, `data-columns="1"`)
	assert.NotContains(t, out, "rightalign")
}

func TestRenderPage(t *testing.T) {
	tree := sampleTree()
	tree[1].Children = append(tree[1].Children, listing.FileEntry{
		Name: "deep", Local: "sub/deep", IsDir: true, TreeSize: 1,
		Children: []listing.FileEntry{file("c.txt", "sub/deep/c.txt", 1)},
	})
	tree[1].TreeSize = 2

	h := NewHTMLRenderer()
	NewOutput(h, "/data/", "http://x/", tree).Render(params(map[string]string{"style": "page"}))
	out := h.String()

	assert.Contains(t, out, "<h1>Sub &lt;dir&gt;</h1>")
	assert.Contains(t, out, "<h2>deep</h2>")
	assert.NotContains(t, out, "<h1>empty</h1>")
	assert.Less(t, strings.Index(out, "a.txt"), strings.Index(out, "<h1>"))
	assert.Less(t, strings.Index(out, "b.txt"), strings.Index(out, "<h2>"))
}

func TestRenderUnknownStyle(t *testing.T) {
	h := NewHTMLRenderer()
	assert.False(t, NewOutput(h, "/data/", "http://x/", sampleTree()).Render(params(map[string]string{"style": "bogus"})))
	assert.Empty(t, h.String())
}

func TestTextRendererList(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf, false, true)
	NewOutput(r, "/data/", "http://x/", sampleTree()).RenderList(params(nil))

	want := "- a.txt <http://x/a.txt>\n" +
		"- Sub <dir>\n" +
		"  - b.txt <http://x/sub/b.txt>\n"
	assert.Equal(t, want, buf.String())
}

func TestTextRendererOrderedList(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf, false, false)
	NewOutput(r, "/data/", "http://x/", sampleTree()).RenderList(params(map[string]string{"style": "olist"}))
	assert.Equal(t, "1. a.txt\n2. Sub <dir>\n  1. b.txt\n", buf.String())
}

func TestTextRendererTable(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf, false, false)
	NewOutput(r, "/data/", "http://x/", sampleTree()).RenderTable(params(map[string]string{
		"tableheader": "1", "showsize": "1",
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FILENAME"))
	assert.Contains(t, lines[1], "a.txt")
	assert.Contains(t, lines[1], "10 B")
	assert.Contains(t, lines[2], "Sub <dir>/b.txt")
	assert.Equal(t, strings.Index(lines[0], "SIZE"), strings.Index(lines[1], "10 B"))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.5 kB", FormatSize(1500))
}
