// Package listing holds the crawl result model and the projections applied to
// it before rendering: per-level sorting and flattening.
package listing

import (
	"path"
	"time"
)

// FileEntry is one node of a crawl result. Children is nil for files and for
// directories that were not descended into; a directory that was descended
// into but holds nothing has a non-nil empty slice and a TreeSize of zero.
type FileEntry struct {
	Name       string      `json:"name"`
	Local      string      `json:"local"`
	Path       string      `json:"path"`
	IsDir      bool        `json:"isDir"`
	ModTime    time.Time   `json:"mtime"`
	ChangeTime time.Time   `json:"ctime"`
	Size       uint64      `json:"size"`
	Children   []FileEntry `json:"children"`
	TreeSize   uint64      `json:"treeSize"`
}

// IsLeaf reports whether e has no expanded children.
func (e FileEntry) IsLeaf() bool {
	return e.Children == nil
}

// Ext returns the lower-case extension of the entry's local path without the dot.
func (e FileEntry) Ext() string {
	ext := path.Ext(e.Local)
	if ext == "" {
		return ""
	}
	return toLowerASCII(ext[1:])
}

// TreeSizeOf returns the tree size of a node with the given children: one for
// a leaf, otherwise the sum of the children's tree sizes.
func TreeSizeOf(children []FileEntry) uint64 {
	if children == nil {
		return 1
	}
	var total uint64
	for _, c := range children {
		total += c.TreeSize
	}
	return total
}

// CountLeaves counts leaf nodes in tree.
func CountLeaves(tree []FileEntry) int {
	n := 0
	for _, e := range tree {
		if e.IsLeaf() {
			n++
			continue
		}
		n += CountLeaves(e.Children)
	}
	return n
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
