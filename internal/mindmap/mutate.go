package mindmap

import (
	"fmt"
	"slices"
	"strings"
)

// GraftResult describes what a graft added to the tree.
type GraftResult struct {
	// Added lists the ids of newly created nodes in depth-first order.
	Added []string
	// Merged lists ids of existing nodes that absorbed an incoming child
	// under the dedupe or overwrite policies.
	Merged []string
}

// Graft appends subtrees under targetID and returns the new tree.
//
// Live ids are derived from targetID and each node's name; ids carried by the
// fragment are ignored. The graft is all-or-nothing: on any error the receiver
// is returned unchanged alongside the error. A missing target yields a
// NotFoundError.
func (t *Tree) Graft(targetID string, subtrees []*FragmentNode) (*Tree, GraftResult, error) {
	var res GraftResult
	if !t.Contains(targetID) {
		return t, res, notFound("graft", targetID)
	}
	next := t.clone()
	for _, sub := range subtrees {
		if err := next.attach(targetID, sub, &res); err != nil {
			return t, GraftResult{}, fmt.Errorf("graft under %q: %w", targetID, err)
		}
	}
	return next, res, nil
}

func (t *Tree) attach(parentID string, frag *FragmentNode, res *GraftResult) error {
	if frag == nil {
		return nil
	}
	id, err := DeriveID(parentID, frag.Name)
	if err != nil {
		return err
	}

	if existing, taken := t.nodes[id]; taken {
		sibling := existing.ParentID == parentID
		switch {
		case sibling && t.policy.Graft == GraftDedupe:
			res.Merged = append(res.Merged, id)
			return t.attachChildren(id, frag, res)
		case t.policy.Collision == CollisionReject:
			return fmt.Errorf("%w: %q", ErrIDCollision, id)
		case sibling && t.policy.Collision == CollisionOverwrite:
			replaced := existing.clone()
			replaced.Name = strings.TrimSpace(frag.Name)
			replaced.Details = frag.Details
			replaced.Links = cloneLinks(frag.Links)
			t.nodes[id] = replaced
			res.Merged = append(res.Merged, id)
			return t.attachChildren(id, frag, res)
		default:
			id = t.freeID(id)
		}
	}

	t.nodes[id] = &Node{
		ID:       id,
		ParentID: parentID,
		Name:     strings.TrimSpace(frag.Name),
		Details:  frag.Details,
		Links:    cloneLinks(frag.Links),
		Status:   StatusNotStarted,
	}
	t.children[parentID] = append(slices.Clone(t.children[parentID]), id)
	res.Added = append(res.Added, id)
	return t.attachChildren(id, frag, res)
}

func (t *Tree) attachChildren(id string, frag *FragmentNode, res *GraftResult) error {
	for _, c := range frag.Children {
		if err := t.attach(id, c, res); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) freeID(id string) string {
	for n := 2; ; n++ {
		candidate := suffixedID(id, n)
		if _, taken := t.nodes[candidate]; !taken {
			return candidate
		}
	}
}

func cloneLinks(in []Link) []Link {
	if in == nil {
		return []Link{}
	}
	return slices.Clone(in)
}

// Delete removes id and every descendant, following the arena's child index.
// The root cannot be deleted. Returns the removed ids.
func (t *Tree) Delete(id string) (*Tree, []string, error) {
	if id == t.rootID {
		return t, nil, ErrRootImmutable
	}
	n, ok := t.nodes[id]
	if !ok {
		return t, nil, notFound("delete", id)
	}
	next := t.clone()

	var removed []string
	var drop func(string)
	drop = func(cur string) {
		for _, c := range next.children[cur] {
			drop(c)
		}
		delete(next.children, cur)
		delete(next.nodes, cur)
		removed = append(removed, cur)
	}
	drop(id)

	siblings := next.children[n.ParentID]
	next.children[n.ParentID] = slices.DeleteFunc(slices.Clone(siblings), func(s string) bool { return s == id })
	return next, removed, nil
}

// Update merges patch into the node id. Children are not touched, and the
// node keeps its id when renamed.
func (t *Tree) Update(id string, patch Patch) (*Tree, error) {
	n, ok := t.nodes[id]
	if !ok {
		return t, notFound("update", id)
	}
	if err := patch.validate(); err != nil {
		return t, err
	}
	next := t.clone()
	updated := n.clone()
	patch.applyTo(updated)
	next.nodes[id] = updated
	return next, nil
}
