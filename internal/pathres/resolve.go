package pathres

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPathNotAllowed is returned for any path outside the configured roots.
	ErrPathNotAllowed = errors.New("path not allowed")
	// ErrNoPaths is returned when no roots are configured at all.
	ErrNoPaths = fmt.Errorf("no paths configured: %w", ErrPathNotAllowed)
)

// PathInfo describes a resolved path. Path is always Root + Local.
type PathInfo struct {
	Root  string `json:"root"`
	Web   string `json:"web"`
	Alias string `json:"alias,omitempty"`
	Local string `json:"local"`
	Path  string `json:"path"`
}

// Resolve maps input onto the configured root it falls under.
//
// Keys are tried shortest first and the first key that is a prefix of the
// cleaned input wins. With nested roots the outer one therefore claims the
// path, which is not a longest-prefix match.
func (r *Resolver) Resolve(input string, addTrailingSlash bool) (PathInfo, error) {
	p := CleanPath(input, addTrailingSlash)
	if len(r.rules) == 0 {
		return PathInfo{}, ErrNoPaths
	}

	for _, key := range r.orderedKeys() {
		if !strings.HasPrefix(p, key) {
			continue
		}
		local := p[len(key):]
		if escapesRoot(local) {
			break
		}
		rule := r.rules[key]
		return PathInfo{
			Root:  rule.Root,
			Web:   rule.Web,
			Alias: rule.Alias,
			Local: local,
			Path:  rule.Root + local,
		}, nil
	}
	return PathInfo{}, fmt.Errorf("%w: %s", ErrPathNotAllowed, p)
}

func (r *Resolver) orderedKeys() []string {
	keys := make([]string, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func escapesRoot(local string) bool {
	for _, seg := range strings.Split(local, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
