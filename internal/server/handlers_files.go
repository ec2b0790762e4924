package server

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/matthewsawatzky/filelist/internal/db"
	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/syntax"
	"github.com/matthewsawatzky/filelist/internal/wiki"
)

// joinRoot glues the root and file query values of a download link back into
// one path for the resolver.
func joinRoot(root, rel string) string {
	root = strings.TrimSpace(root)
	rel = strings.TrimLeft(strings.TrimSpace(rel), `/\`)
	if rel == "" {
		return root
	}
	return strings.TrimRight(root, `/\`) + "/" + rel
}

// handleFile serves one file below a configured root. The path goes through
// the same resolver and jail as a crawl, so nothing that could not be listed
// can be fetched.
func (a *App) handleFile(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	requested := joinRoot(q.Get("root"), q.Get("file"))
	if strings.ContainsRune(requested, '\x00') {
		a.audit(r, db.ActionDenied, requested, http.StatusBadRequest, "nul byte")
		a.writeText(w, http.StatusBadRequest, "invalid path")
		return
	}

	info, err := a.engine.Resolver().Resolve(requested, false)
	if err != nil {
		a.audit(r, db.ActionDenied, requested, http.StatusForbidden, err.Error())
		a.writeText(w, http.StatusForbidden, "path not allowed")
		return
	}
	if a.jail.IsWikiControlled(info.Path) {
		a.logger.Warn("refusing to serve host-controlled file", "path", info.Path, "request_id", requestIDFrom(r))
		a.audit(r, db.ActionDenied, info.Path, http.StatusForbidden, "host-controlled")
		a.writeText(w, http.StatusForbidden, "path not allowed")
		return
	}

	fi, err := os.Lstat(info.Path)
	if err != nil || !fi.Mode().IsRegular() {
		a.audit(r, db.ActionMissing, info.Path, http.StatusNotFound, "")
		a.writeText(w, http.StatusNotFound, "file not found")
		return
	}
	f, err := os.Open(info.Path)
	if err != nil {
		a.audit(r, db.ActionMissing, info.Path, http.StatusNotFound, err.Error())
		a.writeText(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		a.writeText(w, http.StatusInternalServerError, "read failed")
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		a.writeText(w, http.StatusInternalServerError, "read failed")
		return
	}

	name := path.Base(info.Path)
	disposition := "attachment"
	if !syntax.Truthy(q.Get("download")) && previewable(mtype) {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", mtype.String())
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))

	a.audit(r, db.ActionDownload, info.Path, http.StatusOK, mtype.String())
	http.ServeContent(w, r, name, fi.ModTime(), f)
}

// previewable reports whether browsers can show m inline without running
// anything from it.
func previewable(m *mimetype.MIME) bool {
	for p := m; p != nil; p = p.Parent() {
		if p.Is("text/html") || p.Is("image/svg+xml") {
			return false
		}
	}
	if m.Is("application/pdf") {
		return true
	}
	for _, prefix := range []string{"image/", "text/", "audio/", "video/"} {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}

// queryParams builds directive flags from the configured defaults and the
// query values that map onto flags.
func (a *App) queryParams(r *http.Request) syntax.Params {
	raw := syntax.ParseFlags(a.engine.Settings().Defaults)
	q := r.URL.Query()
	for _, key := range []string{"sort", "order", "recursive", "titlefile"} {
		if q.Has(key) {
			raw[key] = q.Get(key)
		}
	}
	return syntax.NewParams(raw)
}

func (a *App) listFromQuery(w http.ResponseWriter, r *http.Request) (wiki.Listing, bool) {
	q := r.URL.Query()
	pattern := strings.TrimSpace(q.Get("pattern"))
	if pattern == "" {
		pattern = "*"
	}
	base := joinRoot(q.Get("root"), q.Get("dir"))
	l, err := a.engine.List(base, pattern, a.queryParams(r))
	if err != nil {
		if errors.Is(err, pathres.ErrPathNotAllowed) {
			a.writeError(w, http.StatusForbidden, "path not allowed")
			return wiki.Listing{}, false
		}
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return wiki.Listing{}, false
	}
	return l, true
}

func (a *App) handleList(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	l, ok := a.listFromQuery(w, r)
	if !ok {
		return
	}
	entries := l.Entries
	if syntax.Truthy(r.URL.Query().Get("flat")) {
		entries = listing.Flatten(entries, "")
	}
	a.writeJSON(w, http.StatusOK, listResponse{
		Root:    l.Info.Root,
		Local:   l.Info.Local,
		Web:     l.Info.Web,
		Pattern: r.URL.Query().Get("pattern"),
		Count:   listing.CountLeaves(entries),
		Zip:     a.absoluteURL(r, a.route("/zip")+"?"+r.URL.RawQuery),
		Entries: entries,
	})
}

// handleZip streams every file a listing would show as one archive. Names in
// the archive are the flattened listing names.
func (a *App) handleZip(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	l, ok := a.listFromQuery(w, r)
	if !ok {
		return
	}
	files := make([]listing.FileEntry, 0, len(l.Entries))
	for _, e := range listing.Flatten(l.Entries, "") {
		if !e.IsDir {
			files = append(files, e)
		}
	}
	target := l.Info.Path
	if len(files) == 0 {
		a.audit(r, db.ActionMissing, target, http.StatusNotFound, "empty archive")
		a.writeError(w, http.StatusNotFound, "no matching files")
		return
	}

	zipName := path.Base(strings.TrimRight(target, "/"))
	if zipName == "" || zipName == "." || zipName == "/" {
		zipName = "filelist"
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": zipName + ".zip"}))

	zw := zip.NewWriter(w)
	defer zw.Close()

	addFile := func(e listing.FileEntry) error {
		fi, err := os.Lstat(e.Path)
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return fs.ErrInvalid
		}
		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		hdr.Name = e.Name
		hdr.Method = zip.Deflate
		writer, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(e.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(writer, f)
		return err
	}

	for _, e := range files {
		if err := addFile(e); err != nil {
			// headers are already out; all that is left is to stop
			a.logger.Warn("zip entry failed", "path", e.Path, "err", err, "request_id", requestIDFrom(r))
			return
		}
	}
	a.audit(r, db.ActionDownload, target, http.StatusOK, fmt.Sprintf("zip of %d files", len(files)))
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": a.opts.Version})
}

func (a *App) absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if a.opts.HTTPS || r.TLS != nil {
		scheme = "https"
	}
	host := strings.TrimSpace(r.Host)
	if host == "" {
		host = net.JoinHostPort(a.opts.Bind, strconv.Itoa(a.opts.Port))
	}
	if a.opts.Host != "" {
		host = a.opts.Host
		if !strings.Contains(host, ":") {
			host = net.JoinHostPort(host, strconv.Itoa(a.opts.Port))
		}
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}
