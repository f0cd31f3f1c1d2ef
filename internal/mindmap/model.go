// Package mindmap holds the task breakdown tree: the live node model, the flat
// wire format returned by the generation model, and the conversion and
// mutation operations between them.
package mindmap

import (
	"fmt"
	"slices"
	"strings"
)

// LinkType classifies a supporting resource.
type LinkType string

const (
	LinkWebsite  LinkType = "website"
	LinkTutorial LinkType = "tutorial"
	LinkVideo    LinkType = "video"
	LinkBook     LinkType = "book"
	LinkArticle  LinkType = "article"
	LinkForum    LinkType = "forum"
	LinkOther    LinkType = "other"
)

// NormalizeLinkType maps free-form model output onto a known link type.
// Unknown values become LinkOther.
func NormalizeLinkType(raw string) LinkType {
	switch t := LinkType(strings.ToLower(strings.TrimSpace(raw))); t {
	case LinkWebsite, LinkTutorial, LinkVideo, LinkBook, LinkArticle, LinkForum, LinkOther:
		return t
	default:
		return LinkOther
	}
}

// Link is a supporting resource attached to a node.
type Link struct {
	Title string   `json:"title" yaml:"title"`
	Type  LinkType `json:"type" yaml:"type"`
	URL   string   `json:"url" yaml:"url"`
}

// Status is the user-tracked progress of a task. It is independent of enrichment.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusSkipped    Status = "skipped"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone, StatusSkipped}

// ParseStatus validates a status string. Empty input yields StatusNotStarted.
func ParseStatus(s string) (Status, error) {
	if strings.TrimSpace(s) == "" {
		return StatusNotStarted, nil
	}
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("%w: %q (valid: not_started, in_progress, done, skipped)", ErrInvalidStatus, s)
	}
	return st, nil
}

// RoleAssignment is one role/responsibility pair generated for a task.
type RoleAssignment struct {
	Role           string `json:"role" yaml:"role" validate:"required,nonempty"`
	Responsibility string `json:"responsibility" yaml:"responsibility" validate:"required,nonempty"`
	Reason         string `json:"reason" yaml:"reason"`
}

// Node is one task in the live tree.
//
// Optional enrichment fields distinguish "absent" from "empty": TaskDetail is
// nil until a detail fetch succeeds, EvaluationChecklist and RRData are nil
// until their fetches succeed. Subtopics is only populated on snapshots; the
// Tree stores children in its own index.
type Node struct {
	ID                  string           `json:"id" yaml:"id"`
	ParentID            string           `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Name                string           `json:"name" yaml:"name"`
	Details             string           `json:"details" yaml:"details"`
	Links               []Link           `json:"links" yaml:"links"`
	TaskDetail          *string          `json:"taskDetail,omitempty" yaml:"taskDetail,omitempty"`
	EvaluationChecklist []string         `json:"evaluationChecklist" yaml:"evaluationChecklist"`
	RRData              []RoleAssignment `json:"rrData" yaml:"rrData"`
	Status              Status           `json:"status" yaml:"status"`
	Subtopics           []*Node          `json:"subtopics" yaml:"subtopics"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// IsLeaf reports whether the node has no children in this snapshot.
func (n *Node) IsLeaf() bool { return len(n.Subtopics) == 0 }

// HasDetail reports whether detail enrichment has completed for the node.
func (n *Node) HasDetail() bool { return n.TaskDetail != nil }

// HasRoles reports whether role generation has completed for the node.
func (n *Node) HasRoles() bool { return n.RRData != nil }

// Walk visits n and its descendants depth-first in child order.
// Returning false from fn stops descent into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Subtopics {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node) bool {
		total++
		return true
	})
	return total
}

// Find returns the node with the given id in the subtree, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// clone copies the node's own fields. Subtopics is not copied.
func (n *Node) clone() *Node {
	c := *n
	c.Links = slices.Clone(n.Links)
	if n.TaskDetail != nil {
		d := *n.TaskDetail
		c.TaskDetail = &d
	}
	if n.EvaluationChecklist != nil {
		c.EvaluationChecklist = slices.Clone(n.EvaluationChecklist)
	}
	if n.RRData != nil {
		c.RRData = slices.Clone(n.RRData)
	}
	c.Subtopics = nil
	return &c
}

// Patch is a partial update for a single node. Nil fields are left unchanged.
type Patch struct {
	Name                *string
	Details             *string
	Links               *[]Link
	TaskDetail          *string
	EvaluationChecklist *[]string
	RRData              *[]RoleAssignment
	Status              *Status
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Details == nil && p.Links == nil && p.TaskDetail == nil &&
		p.EvaluationChecklist == nil && p.RRData == nil && p.Status == nil
}

func (p Patch) validate() error {
	if p.Name != nil && Slug(*p.Name) == "" {
		return fmt.Errorf("%w: name must contain non-whitespace characters", ErrInvalidName)
	}
	if p.Status != nil && !slices.Contains(Statuses, *p.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

func (p Patch) applyTo(n *Node) {
	if p.Name != nil {
		n.Name = strings.TrimSpace(*p.Name)
	}
	if p.Details != nil {
		n.Details = *p.Details
	}
	if p.Links != nil {
		n.Links = slices.Clone(*p.Links)
		if n.Links == nil {
			n.Links = []Link{}
		}
	}
	if p.TaskDetail != nil {
		d := *p.TaskDetail
		n.TaskDetail = &d
	}
	if p.EvaluationChecklist != nil {
		n.EvaluationChecklist = slices.Clone(*p.EvaluationChecklist)
		if n.EvaluationChecklist == nil {
			n.EvaluationChecklist = []string{}
		}
	}
	if p.RRData != nil {
		n.RRData = slices.Clone(*p.RRData)
		if n.RRData == nil {
			n.RRData = []RoleAssignment{}
		}
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
}
