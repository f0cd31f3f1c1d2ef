package mindmap

// FragmentNode is a nested node rebuilt from a flat fragment. It is not a
// live node: it carries the model-supplied ids only for diagnostics, and
// receives a real id when it is grafted into a Tree.
type FragmentNode struct {
	WireID       string
	WireParentID string
	Name         string
	Details      string
	Links        []Link
	Children     []*FragmentNode
}

// Count returns the number of nodes in the fragment subtree.
func (f *FragmentNode) Count() int {
	n := 1
	for _, c := range f.Children {
		n += c.Count()
	}
	return n
}

// Reconstruction is the result of rebuilding a flat fragment.
type Reconstruction struct {
	// Roots are the top-level nodes in input order. Entries whose parent is
	// null or not part of the fragment land here.
	Roots []*FragmentNode
	// Duplicates lists ids that appeared more than once; the last entry won.
	Duplicates []string
	// CyclesBroken lists ids that were promoted to the top level because
	// linking them would have created a parent cycle.
	CyclesBroken []string
}

// Count returns the number of nodes across all roots.
func (r Reconstruction) Count() int {
	n := 0
	for _, root := range r.Roots {
		n += root.Count()
	}
	return n
}

// Reconstruct converts flat entries into nested subtrees.
//
// Every entry with a distinct id appears exactly once in the result. An entry
// whose parent id resolves to another entry becomes that entry's child, in
// input order. Otherwise it is returned as a root, and the caller decides
// where to attach it. When an id repeats, the last entry's content is kept at
// the position of its last occurrence.
func Reconstruct(entries []FlatSubtopic) Reconstruction {
	var res Reconstruction

	last := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, seen := last[e.ID]; seen {
			res.Duplicates = append(res.Duplicates, e.ID)
		}
		last[e.ID] = i
	}

	shells := make(map[string]*FragmentNode, len(last))
	for i, e := range entries {
		if last[e.ID] != i {
			continue
		}
		shells[e.ID] = &FragmentNode{
			WireID:       e.ID,
			WireParentID: e.Parent(),
			Name:         e.Name,
			Details:      e.Details,
			Links:        e.Links,
		}
	}

	linked := make(map[string]string, len(shells))
	createsCycle := func(child, parent string) bool {
		for cur := parent; cur != ""; cur = linked[cur] {
			if cur == child {
				return true
			}
		}
		return false
	}

	for i, e := range entries {
		if last[e.ID] != i {
			continue
		}
		node := shells[e.ID]
		parentID := e.Parent()
		parent, ok := shells[parentID]
		switch {
		case parentID == "" || !ok:
			res.Roots = append(res.Roots, node)
		case createsCycle(e.ID, parentID):
			res.CyclesBroken = append(res.CyclesBroken, e.ID)
			res.Roots = append(res.Roots, node)
		default:
			parent.Children = append(parent.Children, node)
			linked[e.ID] = parentID
		}
	}

	return res
}

// ErrorFragment is the single placeholder node shown when generation fails.
func ErrorFragment() []*FragmentNode {
	return []*FragmentNode{{
		Name:    "Error",
		Details: "Failed to expand this topic. Please try again.",
		Links:   []Link{},
	}}
}
