package syntax

import "strings"

// Output styles.
const (
	StyleList  = "list"
	StyleOList = "olist"
	StyleTable = "table"
	StylePage  = "page"
)

// Params are the invocation flags of a directive after defaults are applied.
type Params struct {
	Sort        string
	Order       string
	Style       string
	TableHeader bool
	Recursive   bool
	TitleFile   string
	Cache       bool
	RandLinks   bool
	ShowSize    bool
	ShowDate    bool
	ListSep     string
	// Direct links go to the download endpoint instead of the host's media
	// handler. Kept for markup compatibility; every link is direct here.
	Direct bool
	// Raw holds every flag as written, including unknown ones.
	Raw map[string]string
}

var defaultFlags = map[string]string{
	"sort":        "name",
	"order":       "asc",
	"style":       StyleList,
	"tableheader": "0",
	"recursive":   "0",
	"titlefile":   "_title.txt",
	"cache":       "0",
	"randlinks":   "0",
	"showsize":    "0",
	"showdate":    "0",
	"listsep":     ", ",
	"direct":      "0",
}

// DefaultParams returns the flags of a directive that sets none.
func DefaultParams() Params {
	return NewParams(nil)
}

// NewParams overlays raw on the built-in defaults.
func NewParams(raw map[string]string) Params {
	merged := make(map[string]string, len(defaultFlags)+len(raw))
	for k, v := range defaultFlags {
		merged[k] = v
	}
	for k, v := range raw {
		merged[k] = v
	}
	return Params{
		Sort:        merged["sort"],
		Order:       merged["order"],
		Style:       merged["style"],
		TableHeader: Truthy(merged["tableheader"]),
		Recursive:   Truthy(merged["recursive"]),
		TitleFile:   merged["titlefile"],
		Cache:       Truthy(merged["cache"]),
		RandLinks:   Truthy(merged["randlinks"]),
		ShowSize:    Truthy(merged["showsize"]),
		ShowDate:    Truthy(merged["showdate"]),
		ListSep:     merged["listsep"],
		Direct:      Truthy(merged["direct"]),
		Raw:         merged,
	}
}

// Truthy follows the loose flag convention: only "" and "0" are false.
func Truthy(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "0"
}
