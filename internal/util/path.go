package util

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrEscapesRoot = errors.New("path escapes root")
)

// NormalizeRelPath turns user input into a clean slash separated path with no
// leading slash. Dot segments cannot climb above the empty root.
func NormalizeRelPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// contains reports whether target is root or lies below it. Both must be
// absolute and clean.
func contains(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// realPath resolves symlinks in p. When p does not exist yet its parent is
// resolved instead and the base name is re-attached.
func realPath(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
		if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
			return filepath.Join(dir, filepath.Base(p))
		}
	}
	return p
}

// SafeJoin joins rel under root. The result never leaves root, neither
// lexically nor through a symlink inside it.
func SafeJoin(root, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", ErrInvalidPath
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	joined := filepath.Join(base, filepath.FromSlash(NormalizeRelPath(rel)))
	if !contains(base, joined) {
		return "", ErrEscapesRoot
	}
	if !contains(realPath(base), realPath(joined)) {
		return "", fmt.Errorf("%w via symlink", ErrEscapesRoot)
	}
	return joined, nil
}

// RelPathFromRoot is the slash separated path of absolute below root, "" for
// root itself.
func RelPathFromRoot(root, absolute string) (string, error) {
	base, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(absolute)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
