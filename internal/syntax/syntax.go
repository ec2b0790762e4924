// Package syntax parses {{filelist>path/pattern&flags}} directives.
package syntax

import (
	"errors"
	"regexp"
	"strings"

	"github.com/matthewsawatzky/filelist/internal/pathres"
)

const (
	openMarker  = "{{filelist>"
	closeMarker = "}}"
)

var directiveRe = regexp.MustCompile(`\{\{filelist>.+?\}\}`)

var ErrNotDirective = errors.New("not a filelist directive")

// Directive is one parsed occurrence in a page.
type Directive struct {
	// Base is the directory part of the requested path, with a trailing slash.
	Base    string
	Pattern string
	Params  Params
}

// Match is the location of a directive in its source text.
type Match struct {
	Start, End int
	Text       string
}

// Find returns every directive in src, in order of appearance.
func Find(src string) []Match {
	locs := directiveRe.FindAllStringIndex(src, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{Start: loc[0], End: loc[1], Text: src[loc[0]:loc[1]]})
	}
	return out
}

// Parse decodes a full directive including its markers. defaults is an
// '&' separated flag string applied before the directive's own flags.
func Parse(match, defaults string) (Directive, error) {
	if !strings.HasPrefix(match, openMarker) || !strings.HasSuffix(match, closeMarker) ||
		len(match) < len(openMarker)+len(closeMarker) {
		return Directive{}, ErrNotDirective
	}
	body := match[len(openMarker) : len(match)-len(closeMarker)]
	path, flags, _ := strings.Cut(body, "&")

	raw := ParseFlags(defaults, flags)

	path = pathres.CleanPath(path, false)
	base, pattern := "", path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base, pattern = path[:i], path[i+1:]
	}
	return Directive{
		Base:    base + "/",
		Pattern: pattern,
		Params:  NewParams(raw),
	}, nil
}

// ParseFlags decodes '&' separated name=value flag strings. Later strings
// override earlier ones.
func ParseFlags(flagStrings ...string) map[string]string {
	raw := make(map[string]string)
	for _, flag := range strings.Split(strings.Join(flagStrings, "&"), "&") {
		name, value, _ := strings.Cut(flag, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		// quotes keep surrounding whitespace
		raw[name] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return raw
}
