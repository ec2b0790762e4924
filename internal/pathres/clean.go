package pathres

import "strings"

const uncPrefix = `\\`

// CleanPath normalizes a configured or requested path for prefix comparison.
// Backslashes become forward slashes except a leading UNC marker, which is kept
// literally. Dot segments are collapsed lexically without touching the filesystem.
func CleanPath(p string, addTrailingSlash bool) string {
	unc := ""
	if strings.HasPrefix(p, uncPrefix) {
		unc = uncPrefix
	}
	p = strings.TrimLeft(p, `\`)
	p = strings.ReplaceAll(p, `\`, "/")
	p = Canonicalize(p)
	if addTrailingSlash {
		p = strings.TrimRight(p, "/") + "/"
	}
	return unc + p
}

// Canonicalize collapses ".", ".." and empty segments of a slash separated path.
// Symlinks are not resolved. A ".." with nothing left to remove consumes the
// leading empty segment of an absolute path, so "/../x" becomes "x" and can no
// longer match an absolute root.
func Canonicalize(p string) string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		switch {
		case part == ".":
			continue
		case part == "" && i > 0:
			continue
		case part == ".." && (len(out) == 0 || out[len(out)-1] != ".."):
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}
