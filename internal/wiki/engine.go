// Package wiki is the host rendering pipeline: it resolves directives
// against the configured roots, crawls them and lays the result out.
package wiki

import (
	"io"
	"log/slog"

	"github.com/matthewsawatzky/filelist/internal/crawler"
	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/pathres"
	"github.com/matthewsawatzky/filelist/internal/render"
	"github.com/matthewsawatzky/filelist/internal/syntax"
)

// Inline markers emitted instead of a listing.
const (
	MsgNotAllowed = "[n/a: path not allowed]"
	MsgNoMatch    = "[n/a: no match]"
)

// Status is the outcome of rendering one directive.
type Status int

const (
	StatusOK Status = iota
	StatusNotAllowed
	StatusNoMatch
	StatusBadStyle
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotAllowed:
		return "not allowed"
	case StatusNoMatch:
		return "no match"
	case StatusBadStyle:
		return "unknown style"
	default:
		return "unknown"
	}
}

// Settings is everything the pipeline needs from the host configuration.
type Settings struct {
	// Paths is the multi-line root configuration.
	Paths string
	// Extensions is the comma separated allow-list of file suffixes.
	Extensions string
	// Defaults are flags applied before every directive's own.
	Defaults string
	// DownloadBase is the URL of the download endpoint used in default web
	// templates.
	DownloadBase string
	Ignores      []string
	Jail         pathres.Jail
	Logger       *slog.Logger
}

// Engine renders directives. It keeps no per-request state: the resolver
// and crawler are rebuilt from Settings on every call.
type Engine struct {
	settings Settings
	logger   *slog.Logger
}

func NewEngine(s Settings) *Engine {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{settings: s, logger: logger}
}

// Settings returns the engine's configuration.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Resolver parses the configured roots.
func (e *Engine) Resolver() *pathres.Resolver {
	return pathres.Parse(e.settings.Paths, e.settings.DownloadBase)
}

// Result describes one rendered directive.
type Result struct {
	Status    Status
	Cacheable bool
	Entries   int
}

// Listing is a resolved and crawled directive.
type Listing struct {
	Info    pathres.PathInfo
	Entries []listing.FileEntry
}

// List resolves base and crawls it for pattern with p's flags. The only
// error is pathres.ErrPathNotAllowed; an empty listing is not an error.
func (e *Engine) List(base, pattern string, p syntax.Params) (Listing, error) {
	info, err := e.Resolver().Resolve(base, true)
	if err != nil {
		return Listing{}, err
	}
	c := crawler.New(crawler.Options{
		Extensions: e.settings.Extensions,
		Ignores:    e.settings.Ignores,
		Order:      listing.NewOrder(p.Sort, p.Order),
		Jail:       e.settings.Jail,
		Logger:     e.logger,
	})
	entries := c.Crawl(info.Root, info.Local, pattern, p.Recursive, p.TitleFile)
	return Listing{Info: info, Entries: entries}, nil
}

// RenderDirective renders d into r. Resolution failures and empty results
// are reported inline instead of failing the page.
func (e *Engine) RenderDirective(r render.Renderer, d syntax.Directive) Result {
	res := Result{Cacheable: d.Params.Cache}

	l, err := e.List(d.Base, d.Pattern, d.Params)
	if err != nil {
		e.logger.Debug("directive rejected", "base", d.Base, "err", err)
		r.Text(MsgNotAllowed)
		res.Status = StatusNotAllowed
		return res
	}
	if len(l.Entries) == 0 {
		r.Text(MsgNoMatch)
		res.Status = StatusNoMatch
		return res
	}

	res.Entries = listing.CountLeaves(l.Entries)
	if !render.NewOutput(r, l.Info.Root, l.Info.Web, l.Entries).Render(d.Params) {
		e.logger.Warn("unknown directive style", "style", d.Params.Style)
		res.Status = StatusBadStyle
	}
	return res
}

// RenderString parses a single directive and renders it with r.
func (e *Engine) RenderString(r render.Renderer, directive string) (Result, error) {
	d, err := syntax.Parse(directive, e.settings.Defaults)
	if err != nil {
		return Result{}, err
	}
	return e.RenderDirective(r, d), nil
}
