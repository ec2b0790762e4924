package crawler

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
)

//go:embed ignore.txt
var defaultIgnores string

var ignoreComment = regexp.MustCompile(`\s*#.*$`)

// DefaultIgnores returns the built-in ignore globs.
func DefaultIgnores() []string {
	return ParseIgnores(defaultIgnores)
}

// ParseIgnores reads one glob per line. Everything from a '#' on is a
// comment; blank lines are dropped.
func ParseIgnores(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(ignoreComment.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LoadIgnores reads ignore globs from path. An empty path yields the
// built-in list.
func LoadIgnores(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultIgnores(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	return ParseIgnores(string(b)), nil
}
