package listing

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey selects the comparator used to order entries.
type SortKey string

const (
	SortName  SortKey = "name"
	SortIName SortKey = "iname"
	SortMTime SortKey = "mtime"
	SortCTime SortKey = "ctime"
	SortSize  SortKey = "size"
	// SortNone keeps enumeration order.
	SortNone SortKey = ""
)

var comparators = map[SortKey]func(a, b FileEntry) int{
	SortName: func(a, b FileEntry) int {
		return strings.Compare(a.Name, b.Name)
	},
	SortIName: func(a, b FileEntry) int {
		return strings.Compare(toLowerASCII(a.Name), toLowerASCII(b.Name))
	},
	SortMTime: func(a, b FileEntry) int {
		return a.ModTime.Compare(b.ModTime)
	},
	SortCTime: func(a, b FileEntry) int {
		return a.ChangeTime.Compare(b.ChangeTime)
	},
	SortSize: func(a, b FileEntry) int {
		return cmp.Compare(a.Size, b.Size)
	},
}

// ParseSortKey maps a user supplied key onto a SortKey. Unknown keys yield
// SortNone and false.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := comparators[k]; ok {
		return k, true
	}
	return SortNone, false
}

// Order is a sort key plus direction.
type Order struct {
	Key     SortKey
	Reverse bool
}

// NewOrder builds an Order from the directive values sort and order.
// Only "desc" reverses.
func NewOrder(sortBy, order string) Order {
	key, _ := ParseSortKey(sortBy)
	return Order{Key: key, Reverse: strings.EqualFold(strings.TrimSpace(order), "desc")}
}

// SortLevel orders one sibling list in place with a stable sort and reverses
// it afterwards when requested. Ties keep enumeration order before reversal.
// SortNone leaves the slice untouched, reversal included.
func SortLevel(entries []FileEntry, o Order) {
	compare, ok := comparators[o.Key]
	if !ok {
		return
	}
	slices.SortStableFunc(entries, compare)
	if o.Reverse {
		slices.Reverse(entries)
	}
}
