package listing

// SortRecursive returns a copy of tree where every subtree is ordered
// independently. Children are sorted before their own sibling list.
func SortRecursive(tree []FileEntry, o Order) []FileEntry {
	if tree == nil {
		return nil
	}
	out := make([]FileEntry, len(tree))
	for i, e := range tree {
		if e.Children != nil {
			e.Children = SortRecursive(e.Children, o)
		}
		out[i] = e
	}
	SortLevel(out, o)
	return out
}

// Flatten turns tree into a flat list of its leaves, each renamed with the
// names of its ancestors: "dir/sub/file.txt". Table output uses this to show
// hierarchy through names instead of nesting.
func Flatten(tree []FileEntry, prefix string) []FileEntry {
	out := make([]FileEntry, 0, len(tree))
	for _, e := range tree {
		if e.Children != nil {
			out = append(out, Flatten(e.Children, prefix+e.Name+"/")...)
			continue
		}
		e.Name = prefix + e.Name
		out = append(out, e)
	}
	return out
}
