package crawler

import (
	"regexp"
	"strings"
)

// Shell wildcards survive quoting; everything else is literal.
var globUnquote = strings.NewReplacer(
	`\*`, ".*",
	`\?`, ".",
	`\[`, "[",
	`\]`, "]",
)

// compileGlob translates a shell glob into an anchored, case-insensitive
// regular expression. Character classes are passed through as regexp
// classes, so a malformed class fails to compile.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)^" + globUnquote.Replace(regexp.QuoteMeta(pattern)) + "$")
}

// Fnmatch reports whether name matches the shell glob pattern: '*' is any
// run, '?' one character, '[...]' a class. Matching ignores case. An
// invalid pattern matches nothing.
func Fnmatch(pattern, name string) bool {
	re, err := compileGlob(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

type globSet []*regexp.Regexp

func compileGlobs(patterns []string) globSet {
	set := make(globSet, 0, len(patterns))
	for _, p := range patterns {
		re, err := compileGlob(p)
		if err != nil {
			continue
		}
		set = append(set, re)
	}
	return set
}

func (s globSet) match(name string) bool {
	for _, re := range s {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// compileExtensions builds the suffix filter from a comma separated list.
// A blank list allows every file and yields nil.
func compileExtensions(list string) *regexp.Regexp {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(strings.TrimSpace(p))
	}
	return regexp.MustCompile("(?i)(" + strings.Join(parts, "|") + ")$")
}
