package wiki

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/matthewsawatzky/filelist/internal/render"
	"github.com/matthewsawatzky/filelist/internal/syntax"
	"github.com/matthewsawatzky/filelist/internal/util"
)

// Page is a rendered markdown page.
type Page struct {
	Title     string
	HTML      string
	Cacheable bool
	Results   []Result
}

type frontMatter struct {
	Title string `yaml:"title"`
	// Defaults are page-wide flags, applied after the configured ones.
	Defaults string `yaml:"defaults"`
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderPage converts a markdown page to HTML, replacing every filelist
// directive with its rendered listing. The page is cacheable only when every
// directive on it is.
func (e *Engine) RenderPage(src []byte) (Page, error) {
	body, fm, err := splitFrontMatter(src)
	if err != nil {
		return Page{}, fmt.Errorf("parse front matter: %w", err)
	}

	defaults := e.settings.Defaults
	if fm.Defaults != "" {
		defaults += "&" + fm.Defaults
	}

	prefix, err := util.RandomHex(8)
	if err != nil {
		return Page{}, err
	}

	page := Page{Title: fm.Title, Cacheable: true}
	fragments := make(map[string]string)
	var out bytes.Buffer
	last := 0
	for i, m := range syntax.Find(string(body)) {
		out.Write(body[last:m.Start])
		last = m.End

		h := render.NewHTMLRenderer()
		d, err := syntax.Parse(m.Text, defaults)
		if err != nil {
			return Page{}, fmt.Errorf("parse directive %q: %w", m.Text, err)
		}
		res := e.RenderDirective(h, d)
		page.Results = append(page.Results, res)
		page.Cacheable = page.Cacheable && res.Cacheable

		token := fmt.Sprintf("filelist%sx%dx", prefix, i)
		fragments[token] = h.String()
		out.WriteString(token)
	}
	out.Write(body[last:])

	source := out.Bytes()
	doc := markdown.Parser().Parse(text.NewReader(source))
	if page.Title == "" {
		page.Title = firstHeading(doc, source)
	}
	var html bytes.Buffer
	if err := markdown.Renderer().Render(&html, source, doc); err != nil {
		return Page{}, fmt.Errorf("render markdown: %w", err)
	}

	rendered := html.String()
	for token, fragment := range fragments {
		rendered = strings.ReplaceAll(rendered, "<p>"+token+"</p>", fragment)
		rendered = strings.ReplaceAll(rendered, token, fragment)
	}
	page.HTML = rendered
	return page, nil
}

func splitFrontMatter(src []byte) ([]byte, frontMatter, error) {
	var fm frontMatter
	normalized := bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return src, fm, nil
	}
	rest := normalized[4:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return src, fm, nil
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, fm, err
	}
	body := rest[end+4:]
	body = bytes.TrimPrefix(body, []byte("\n"))
	return body, fm, nil
}

func firstHeading(doc ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(nodeText(h, source))
		return ast.WalkStop, nil
	})
	return title
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(nodeText(c, source))
	}
	return b.String()
}
