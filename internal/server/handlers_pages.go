package server

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matthewsawatzky/filelist/internal/db"
	"github.com/matthewsawatzky/filelist/internal/util"
)

const pageExt = ".md"

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != a.route("/") && r.URL.Path != a.opts.BasePath {
		http.NotFound(w, r)
		return
	}
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	pages, err := a.listPages()
	if err != nil {
		a.logger.Error("list pages", "dir", a.opts.PagesDir, "err", err)
		http.Error(w, "failed to list pages", http.StatusInternalServerError)
		return
	}
	a.renderTemplate(w, "index.html", map[string]any{
		"Pages":   pages,
		"Version": a.opts.Version,
	})
}

// listPages returns every markdown page below PagesDir, nested pages named
// by their slash separated path.
func (a *App) listPages() ([]pageLink, error) {
	pages := make([]pageLink, 0)
	err := filepath.WalkDir(a.opts.PagesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == a.opts.PagesDir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if p != a.opts.PagesDir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(p), pageExt) {
			return nil
		}
		rel, err := util.RelPathFromRoot(a.opts.PagesDir, p)
		if err != nil {
			return nil
		}
		name := strings.TrimSuffix(rel, filepath.Ext(rel))
		pages = append(pages, pageLink{Name: name, URL: a.route("/view/" + name)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })
	return pages, nil
}

func (a *App) handleView(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, a.route("/view/"))
	name = util.NormalizeRelPath(name)
	if name == "" {
		http.Redirect(w, r, a.route("/"), http.StatusSeeOther)
		return
	}
	abs, err := util.SafeJoin(a.opts.PagesDir, name+pageExt)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	page, err := a.engine.RenderPage(src)
	if err != nil {
		a.logger.Error("render page", "page", name, "err", err, "request_id", requestIDFrom(r))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	a.logger.Debug("page rendered", "page", name, "directives", len(page.Results), "cacheable", page.Cacheable)
	if len(page.Results) > 0 {
		a.audit(r, db.ActionPageRendered, name, http.StatusOK, "")
	}

	if page.Cacheable {
		w.Header().Set("Cache-Control", "private, max-age=300")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	title := page.Title
	if title == "" {
		title = name
	}
	a.renderTemplate(w, "page.html", map[string]any{
		"Title":    title,
		"BasePath": a.templateBasePath(),
		// the body is goldmark output plus our own escaped listing markup
		"Body":    template.HTML(page.HTML),
		"Version": a.opts.Version,
	})
}

func (a *App) renderTemplate(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "template render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
