// Package mcp provides types and handlers for the MCP server.
package mcp

import "github.com/josephgoksu/TaskDivider/internal/mindmap"

// Tool names.
const (
	ToolGenerate = "mindmap_generate"
	ToolExpand   = "mindmap_expand"
	ToolSelect   = "mindmap_select"
	ToolRoles    = "mindmap_roles"
	ToolUpdate   = "mindmap_update"
	ToolDelete   = "mindmap_delete"
	ToolExport   = "mindmap_export"
)

// GenerateParams defines the parameters for mindmap_generate.
type GenerateParams struct {
	// Topic is the goal to break down. Required.
	Topic string `json:"topic"`

	// Depth expands every leaf this many extra levels.
	// Optional (default: 0, max: 3)
	Depth int `json:"depth,omitempty"`
}

// NodeParams identifies one node by id or name.
// Used by: mindmap_expand, mindmap_select, mindmap_roles, mindmap_delete
type NodeParams struct {
	// Node is a node id or (part of) its name. Required.
	Node string `json:"node"`
}

// ChecklistAction selects a checklist edit in mindmap_update.
type ChecklistAction string

const (
	ChecklistActionAdd    ChecklistAction = "add"
	ChecklistActionRemove ChecklistAction = "remove"
	ChecklistActionSet    ChecklistAction = "set"
)

// IsValid checks if the action is a valid checklist action.
func (a ChecklistAction) IsValid() bool {
	switch a {
	case ChecklistActionAdd, ChecklistActionRemove, ChecklistActionSet:
		return true
	}
	return false
}

// Op converts the action to a checklist edit. index is 1-based.
func (a ChecklistAction) Op(index int, text string) mindmap.ChecklistOp {
	kind := map[ChecklistAction]mindmap.ChecklistOpKind{
		ChecklistActionAdd:    mindmap.ChecklistAdd,
		ChecklistActionRemove: mindmap.ChecklistRemove,
		ChecklistActionSet:    mindmap.ChecklistSet,
	}[a]
	return mindmap.ChecklistOp{Kind: kind, Index: index - 1, Text: text}
}

// UpdateParams defines the parameters for mindmap_update. Empty fields are
// left unchanged.
type UpdateParams struct {
	// Node is a node id or (part of) its name. Required.
	Node string `json:"node"`

	// Name renames the node. Its id does not change.
	Name string `json:"name,omitempty"`

	// Details replaces the one-line description.
	Details string `json:"details,omitempty"`

	// Status is one of: not_started, in_progress, done, skipped
	Status string `json:"status,omitempty"`

	// ChecklistAction edits the evaluation checklist.
	// One of: add, remove, set
	ChecklistAction ChecklistAction `json:"checklist_action,omitempty"`

	// ChecklistIndex is the 1-based item index.
	// Required for: remove, set
	ChecklistIndex int `json:"checklist_index,omitempty"`

	// ChecklistText is the item text.
	// Required for: add, set
	ChecklistText string `json:"checklist_text,omitempty"`
}

// ExportParams defines the parameters for mindmap_export.
type ExportParams struct {
	// Format is one of: json, markdown, yaml (default: markdown)
	Format string `json:"format,omitempty"`
}

// ToolResult is the outcome of a tool handler. Error holds a formatted,
// user-facing failure; Content the Markdown (or export) body.
type ToolResult struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}
