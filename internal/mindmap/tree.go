package mindmap

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// GraftPolicy controls what happens when a grafted child derives an id that
// already exists under the same parent.
type GraftPolicy string

const (
	// GraftAccumulate always appends, so repeated expansion of a node adds
	// another copy of each child. Colliding ids are resolved by the
	// collision policy.
	GraftAccumulate GraftPolicy = "accumulate"
	// GraftDedupe merges a child into the existing sibling with the same
	// derived id and grafts its children there recursively.
	GraftDedupe GraftPolicy = "dedupe"
)

// CollisionPolicy controls how a derived id that is already taken is resolved.
type CollisionPolicy string

const (
	// CollisionSuffix appends -2, -3, ... until the id is free.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionReject fails the whole graft with ErrIDCollision.
	CollisionReject CollisionPolicy = "reject"
	// CollisionOverwrite replaces the earlier sibling's name, details and
	// links. Collisions with a node under a different parent fall back to suffix.
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// Policy groups the tree's merge policies.
type Policy struct {
	Graft     GraftPolicy     `mapstructure:"graftPolicy" validate:"omitempty,oneof=accumulate dedupe"`
	Collision CollisionPolicy `mapstructure:"collisionPolicy" validate:"omitempty,oneof=suffix reject overwrite"`
}

// DefaultPolicy keeps repeated expansions and suffixes colliding ids.
func DefaultPolicy() Policy {
	return Policy{Graft: GraftAccumulate, Collision: CollisionSuffix}
}

func (p Policy) withDefaults() Policy {
	if p.Graft == "" {
		p.Graft = GraftAccumulate
	}
	if p.Collision == "" {
		p.Collision = CollisionSuffix
	}
	return p
}

// Tree is a parent-indexed arena of nodes.
//
// A Tree value is never modified after it is returned: every mutating
// operation returns a new Tree with a higher Version and leaves the receiver
// untouched. Nodes are shared between versions and replaced, not edited, on
// update, so old snapshots stay consistent.
type Tree struct {
	rootID   string
	nodes    map[string]*Node
	children map[string][]string
	policy   Policy
	version  uint64
}

// New creates a tree holding only a root named topic.
func New(topic string, policy Policy) (*Tree, error) {
	id, err := DeriveID("", topic)
	if err != nil {
		return nil, fmt.Errorf("root topic: %w", err)
	}
	root := &Node{
		ID:     id,
		Name:   strings.TrimSpace(topic),
		Links:  []Link{},
		Status: StatusNotStarted,
	}
	return &Tree{
		rootID:   id,
		nodes:    map[string]*Node{id: root},
		children: map[string][]string{},
		policy:   policy.withDefaults(),
		version:  1,
	}, nil
}

// FromNode rebuilds a tree from a nested snapshot, as produced by Snapshot or
// an imported document. Ids are kept as-is; ParentID fields are reset to the
// actual nesting.
func FromNode(root *Node, policy Policy) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidDocument)
	}
	t := &Tree{
		rootID:   root.ID,
		nodes:    map[string]*Node{},
		children: map[string][]string{},
		policy:   policy.withDefaults(),
		version:  1,
	}
	var add func(n *Node, parentID string) error
	add = func(n *Node, parentID string) error {
		if n == nil {
			return fmt.Errorf("%w: null node under %q", ErrInvalidDocument, parentID)
		}
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("%w: node %q has no id", ErrInvalidDocument, n.Name)
		}
		if _, dup := t.nodes[n.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, n.ID)
		}
		if Slug(n.Name) == "" {
			return fmt.Errorf("%w: node %q: %w", ErrInvalidDocument, n.ID, ErrInvalidName)
		}
		c := n.clone()
		c.ParentID = parentID
		if c.Links == nil {
			c.Links = []Link{}
		}
		if c.Status == "" {
			c.Status = StatusNotStarted
		} else if _, err := ParseStatus(string(c.Status)); err != nil {
			return fmt.Errorf("%w: node %q: %w", ErrInvalidDocument, n.ID, err)
		}
		t.nodes[c.ID] = c
		if parentID != "" {
			t.children[parentID] = append(t.children[parentID], c.ID)
		}
		for _, child := range n.Subtopics {
			if err := add(child, c.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(root, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// RootID returns the id of the root node.
func (t *Tree) RootID() string { return t.rootID }

// Topic returns the root node's name.
func (t *Tree) Topic() string { return t.nodes[t.rootID].Name }

// Version increases with every mutation. Observers can compare versions
// instead of diffing snapshots.
func (t *Tree) Version() uint64 { return t.version }

// Policy returns the tree's merge policies.
func (t *Tree) Policy() Policy { return t.policy }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Contains reports whether id is in the tree.
func (t *Tree) Contains(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Node returns a copy of a single node without its subtopics.
func (t *Tree) Node(id string) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, notFound("get", id)
	}
	return n.clone(), nil
}

// Children returns the ordered child ids of id.
func (t *Tree) Children(id string) []string {
	return slices.Clone(t.children[id])
}

// IDs returns every node id in depth-first order.
func (t *Tree) IDs() []string {
	ids := make([]string, 0, len(t.nodes))
	var walk func(id string)
	walk = func(id string) {
		ids = append(ids, id)
		for _, c := range t.children[id] {
			walk(c)
		}
	}
	walk(t.rootID)
	return ids
}

// Leaves returns the ids of nodes without children, depth-first.
func (t *Tree) Leaves() []string {
	var out []string
	for _, id := range t.IDs() {
		if len(t.children[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Depth returns the number of edges between the root and id.
func (t *Tree) Depth(id string) (int, error) {
	n, ok := t.nodes[id]
	if !ok {
		return 0, notFound("depth", id)
	}
	d := 0
	for n.ParentID != "" {
		d++
		n = t.nodes[n.ParentID]
	}
	return d, nil
}

// Snapshot returns a deep, nested copy of the whole tree.
func (t *Tree) Snapshot() *Node {
	return t.subtree(t.rootID)
}

// Subtree returns a deep, nested copy of the subtree rooted at id.
func (t *Tree) Subtree(id string) (*Node, error) {
	if !t.Contains(id) {
		return nil, notFound("subtree", id)
	}
	return t.subtree(id), nil
}

func (t *Tree) subtree(id string) *Node {
	n := t.nodes[id].clone()
	kids := t.children[id]
	n.Subtopics = make([]*Node, 0, len(kids))
	for _, c := range kids {
		n.Subtopics = append(n.Subtopics, t.subtree(c))
	}
	return n
}

// clone copies the arena's indexes. Node values are shared and must be
// replaced rather than modified.
func (t *Tree) clone() *Tree {
	return &Tree{
		rootID:   t.rootID,
		nodes:    maps.Clone(t.nodes),
		children: maps.Clone(t.children),
		policy:   t.policy,
		version:  t.version + 1,
	}
}
