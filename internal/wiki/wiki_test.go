package wiki

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/render"
	"github.com/matthewsawatzky/filelist/internal/syntax"
)

func setup(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.txt":     "a",
		"sub/b.txt": "bb",
		"img/x.png": "png",
		".hidden":   "h",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	root := filepath.ToSlash(dir) + "/"
	e := NewEngine(Settings{
		Paths:        root + "\nA> pub",
		DownloadBase: "/file",
	})
	return e, root
}

func TestRenderDirectiveList(t *testing.T) {
	e, root := setup(t)
	h := render.NewHTMLRenderer()
	res, err := e.RenderString(h, "{{filelist>"+root+"*&recursive=1}}")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 3, res.Entries)
	assert.False(t, res.Cacheable)
	out := h.String()
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "sub%2Fb.txt")
	assert.Contains(t, out, "/file?root="+pathres.RawURLEncode(root)+"&amp;file=")
	assert.NotContains(t, out, ".hidden")
}

func TestRenderDirectiveAlias(t *testing.T) {
	e, _ := setup(t)
	h := render.NewHTMLRenderer()
	res, err := e.RenderString(h, "{{filelist>pub/sub/*.txt&cache=1}}")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.True(t, res.Cacheable)
	assert.Contains(t, h.String(), ">b.txt</a>")
}

func TestRenderDirectiveNotAllowed(t *testing.T) {
	e, _ := setup(t)
	h := render.NewHTMLRenderer()
	res, err := e.RenderString(h, "{{filelist>/etc/*}}")
	require.NoError(t, err)
	assert.Equal(t, StatusNotAllowed, res.Status)
	assert.Equal(t, MsgNotAllowed, h.String())
}

func TestRenderDirectiveNoMatch(t *testing.T) {
	e, root := setup(t)
	h := render.NewHTMLRenderer()
	res, err := e.RenderString(h, "{{filelist>"+root+"*.doc}}")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
	assert.Equal(t, MsgNoMatch, h.String())
}

func TestRenderDirectiveHostControlled(t *testing.T) {
	e, root := setup(t)
	s := e.Settings()
	s.Jail = pathres.NewJail(filepath.FromSlash(root + "sub"))
	e = NewEngine(s)

	h := render.NewHTMLRenderer()
	res, err := e.RenderString(h, "{{filelist>"+root+"sub/*}}")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestRenderDirectiveDefaults(t *testing.T) {
	e, root := setup(t)
	s := e.Settings()
	s.Defaults = "style=table&tableheader=1"
	e = NewEngine(s)

	h := render.NewHTMLRenderer()
	_, err := e.RenderString(h, "{{filelist>"+root+"*.txt}}")
	require.NoError(t, err)
	assert.Contains(t, h.String(), "<th>Filename</th>")
}

func TestList(t *testing.T) {
	e, root := setup(t)
	l, err := e.List(root, "*", syntax.NewParams(map[string]string{"sort": "name", "order": "desc"}))
	require.NoError(t, err)
	require.Len(t, l.Entries, 3)
	assert.Equal(t, "sub", l.Entries[0].Name)
	assert.Equal(t, root, l.Info.Root)

	_, err = e.List("/nowhere/", "*", syntax.DefaultParams())
	assert.ErrorIs(t, err, pathres.ErrPathNotAllowed)
}

func TestRenderPage(t *testing.T) {
	e, root := setup(t)
	src := "---\ntitle: Downloads\n---\n# Files\n\nAll text files:\n\n{{filelist>" + root + "*.txt&cache=1}}\n\nInline {{filelist>/etc/*}} marker.\n"
	page, err := e.RenderPage([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Downloads", page.Title)
	assert.False(t, page.Cacheable)
	require.Len(t, page.Results, 2)
	assert.Contains(t, page.HTML, "<h1>Files</h1>")
	assert.Contains(t, page.HTML, `<div class="filelist-plugin">`)
	assert.NotContains(t, page.HTML, `<p><div class="filelist-plugin">`)
	assert.Contains(t, page.HTML, "Inline [n/a: path not allowed] marker.")
	assert.NotContains(t, page.HTML, "{{filelist")
	assert.NotContains(t, page.HTML, "title: Downloads")
}

func TestRenderPageTitleFromHeading(t *testing.T) {
	e, root := setup(t)
	page, err := e.RenderPage([]byte("## Project *files*\n\n{{filelist>" + root + "*&cache=1}}\n"))
	require.NoError(t, err)
	assert.Equal(t, "Project files", page.Title)
	assert.True(t, page.Cacheable)
	assert.Equal(t, 1, strings.Count(page.HTML, "filelist-plugin"))
}

func TestRenderPageFrontMatterDefaults(t *testing.T) {
	e, root := setup(t)
	page, err := e.RenderPage([]byte("---\ndefaults: style=olist\n---\n{{filelist>" + root + "*.txt}}\n"))
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "<ol>")
}
