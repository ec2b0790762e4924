package pathres

import (
	"path/filepath"
	"strings"
)

// Jail holds the directories owned by the host application itself. Nothing
// below them is ever listed or served, whatever the configured roots say.
type Jail struct {
	controlled []string
}

// NewJail builds a jail from the host's data, pages and installation
// directories. Empty entries are ignored.
func NewJail(dirs ...string) Jail {
	j := Jail{}
	for _, d := range dirs {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			d = filepath.ToSlash(abs)
		}
		j.controlled = append(j.controlled, CleanPath(d, true))
	}
	return j
}

// IsWikiControlled reports whether p lies inside a host-controlled directory.
// p is cleaned first so doubled slashes cannot slip past the prefix check.
func (j Jail) IsWikiControlled(p string) bool {
	p = CleanPath(p, true)
	for _, dir := range j.controlled {
		if strings.HasPrefix(p, dir) {
			return true
		}
	}
	return false
}

// Dirs returns the cleaned controlled directories.
func (j Jail) Dirs() []string {
	return append([]string(nil), j.controlled...)
}
