// Package crawler walks a jailed directory tree and collects the entries
// matching a shell glob.
package crawler

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/matthewsawatzky/filelist/internal/listing"
	"github.com/matthewsawatzky/filelist/internal/pathres"
)

// Options configures a Crawler. The zero value allows every extension,
// ignores nothing, keeps enumeration order and has an empty jail.
type Options struct {
	// Extensions is a comma separated list of allowed file suffixes.
	Extensions string
	Ignores    []string
	Order      listing.Order
	Jail       pathres.Jail
	Logger     *slog.Logger
}

// Crawler is immutable once built and safe for concurrent Crawl calls.
type Crawler struct {
	ext     *regexp.Regexp
	ignores globSet
	order   listing.Order
	jail    pathres.Jail
	logger  *slog.Logger
}

func New(opts Options) *Crawler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Crawler{
		ext:     compileExtensions(opts.Extensions),
		ignores: compileGlobs(opts.Ignores),
		order:   opts.Order,
		jail:    opts.Jail,
		logger:  logger,
	}
}

type walk struct {
	*Crawler
	root      string
	pattern   *regexp.Regexp
	recursive bool
	titleFile string
}

// Crawl lists the entries of root+local whose names match pattern. With
// recursive set every subdirectory is descended into and listed with its
// children; without it, directories are listed only when their own name
// matches and are not expanded. The result is sorted per level.
//
// Only regular files and directories are listed. Symlinks, pipes, sockets
// and device nodes are skipped without being opened, so a symlink never
// leads the crawl outside root.
//
// Missing or unreadable directories, and anything inside a host-controlled
// directory, produce an empty result rather than an error.
func (c *Crawler) Crawl(root, local, pattern string, recursive bool, titleFile string) []listing.FileEntry {
	re, err := compileGlob(pattern)
	if err != nil {
		c.logger.Debug("invalid pattern", "pattern", pattern, "err", err)
		re = nil
	}
	w := walk{Crawler: c, root: root, pattern: re, recursive: recursive, titleFile: titleFile}
	result := w.dir(strings.Trim(local, "/"))
	if result == nil {
		return []listing.FileEntry{}
	}
	return listing.SortRecursive(result, c.order)
}

func (w walk) dir(local string) []listing.FileEntry {
	dirPath := joinPath(w.root, local)
	if w.jail.IsWikiControlled(dirPath) {
		w.logger.Warn("refusing to crawl host-controlled directory", "path", dirPath)
		return nil
	}

	f, err := os.Open(dirPath)
	if err != nil {
		w.logger.Debug("open directory", "path", dirPath, "err", err)
		return nil
	}
	defer f.Close()

	dirents, err := f.ReadDir(-1)
	if err != nil {
		w.logger.Debug("read directory", "path", dirPath, "err", err)
	}

	result := make([]listing.FileEntry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		if strings.HasPrefix(name, ".") || name == w.titleFile {
			continue
		}
		if de.Type()&fs.ModeSymlink != 0 {
			continue
		}
		self := joinPath(local, name)
		full := joinPath(w.root, self)

		info, err := os.Lstat(full)
		if err != nil || !(info.Mode().IsRegular() || info.IsDir()) || !readable(full) {
			continue
		}
		isDir := info.IsDir()

		matched := w.pattern != nil && w.pattern.MatchString(name)
		if !matched && !(isDir && w.recursive) {
			continue
		}
		if !isDir && w.ext != nil && !w.ext.MatchString(name) {
			continue
		}
		if w.ignores.match(name) {
			continue
		}

		entry := listing.FileEntry{
			Name:       name,
			Local:      self,
			Path:       full,
			IsDir:      isDir,
			ModTime:    info.ModTime(),
			ChangeTime: changeTime(info),
			Size:       uint64(max(info.Size(), 0)),
		}
		if isDir {
			if title := w.readTitle(full); title != "" {
				entry.Name = title
			}
			if w.recursive {
				entry.Children = w.dir(self)
				if entry.Children == nil {
					entry.Children = []listing.FileEntry{}
				}
			}
		}
		entry.TreeSize = listing.TreeSizeOf(entry.Children)
		result = append(result, entry)
	}
	return result
}

// readTitle returns the trimmed content of the title file inside dir, or ""
// when there is none or it cannot be read. A blank title file counts as none
// and the directory keeps its own name.
func (w walk) readTitle(dir string) string {
	if w.titleFile == "" {
		return ""
	}
	p := joinPath(dir, w.titleFile)
	info, err := os.Lstat(p)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	b, err := os.ReadFile(p)
	if err != nil {
		w.logger.Debug("read title file", "path", p, "err", err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
