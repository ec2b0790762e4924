package pathres

import (
	"net/url"
	"strings"
)

const (
	aliasMarker = "A>"
	webMarker   = "W>"
)

// PathRule is one allowed root. Roots and aliases always carry a single
// trailing slash.
type PathRule struct {
	Root  string `json:"root"`
	Web   string `json:"web"`
	Alias string `json:"alias,omitempty"`
}

// Resolver answers whether a path lies below one of the configured roots.
// It is built once per request and never modified afterwards.
type Resolver struct {
	rules map[string]*PathRule
}

// Parse reads the multi-line path configuration. downloadBase is the URL of the
// streaming download endpoint used as the default web template of every root.
//
//	/srv/files/
//	  A> files
//	  W> https://files.example.com/
func Parse(configText, downloadBase string) *Resolver {
	rules := make(map[string]*PathRule)
	lastRoot := ""
	for _, line := range strings.Split(configText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, aliasMarker):
			rule, ok := rules[lastRoot]
			if !ok {
				continue
			}
			alias := CleanPath(strings.TrimSpace(line[len(aliasMarker):]), true)
			rule.Alias = alias
			rules[alias] = rule
		case strings.HasPrefix(line, webMarker):
			rule, ok := rules[lastRoot]
			if !ok {
				continue
			}
			rule.Web = strings.TrimSpace(line[len(webMarker):])
		default:
			root := CleanPath(line, true)
			lastRoot = root
			rules[root] = &PathRule{
				Root: root,
				Web:  DownloadTemplate(downloadBase, root),
			}
		}
	}
	return &Resolver{rules: rules}
}

// DownloadTemplate builds the default web template for root. Item URLs are
// formed by appending the encoded local path.
func DownloadTemplate(downloadBase, root string) string {
	return downloadBase + "?root=" + RawURLEncode(root) + "&file="
}

// RawURLEncode percent-encodes everything except unreserved characters, so
// spaces become %20 rather than "+".
func RawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Rules returns a copy of the lookup table keyed by root and alias. Aliases
// and their roots share the same rule value.
func (r *Resolver) Rules() map[string]PathRule {
	out := make(map[string]PathRule, len(r.rules))
	for k, v := range r.rules {
		out[k] = *v
	}
	return out
}

// Len reports the number of lookup keys, aliases included.
func (r *Resolver) Len() int {
	return len(r.rules)
}
