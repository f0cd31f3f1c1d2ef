package ui

import (
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// Width wraps detail lines; 0 disables wrapping.
	Width int
	// ShowIDs appends each node's id.
	ShowIDs bool
	// ShowDetails prints the details line under each node.
	ShowDetails bool
	// MaxDepth stops descending below this depth; 0 means unlimited.
	MaxDepth int
}

// RenderTree draws the mindmap as an indented tree with box-drawing branches.
func RenderTree(root *mindmap.Node, opts TreeOptions) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(root.Name))
	if opts.ShowIDs {
		sb.WriteString(" " + StyleSubtle.Render("["+root.ID+"]"))
	}
	sb.WriteString("\n")
	if opts.ShowDetails && strings.TrimSpace(root.Details) != "" {
		sb.WriteString(wrapBlock(root.Details, "", opts.Width) + "\n")
	}
	for i, c := range root.Subtopics {
		renderBranch(&sb, c, "", i == len(root.Subtopics)-1, 1, opts)
	}
	return sb.String()
}

func renderBranch(sb *strings.Builder, n *mindmap.Node, prefix string, last bool, depth int, opts TreeOptions) {
	connector, childPrefix := "├── ", prefix+"│   "
	if last {
		connector, childPrefix = "└── ", prefix+"    "
	}

	sb.WriteString(StyleSubtle.Render(prefix+connector) + StatusIcon(n.Status) + " " + nodeTitle(n))
	if opts.ShowIDs {
		sb.WriteString(" " + StyleSubtle.Render("["+n.ID+"]"))
	}
	sb.WriteString(enrichmentMarks(n))
	sb.WriteString("\n")

	if opts.ShowDetails && strings.TrimSpace(n.Details) != "" {
		sb.WriteString(wrapBlock(n.Details, childPrefix+"  ", opts.Width) + "\n")
	}

	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		if len(n.Subtopics) > 0 {
			sb.WriteString(StyleSubtle.Render(childPrefix+"…") + "\n")
		}
		return
	}
	for i, c := range n.Subtopics {
		renderBranch(sb, c, childPrefix, i == len(n.Subtopics)-1, depth+1, opts)
	}
}

func nodeTitle(n *mindmap.Node) string {
	switch n.Status {
	case mindmap.StatusDone, mindmap.StatusSkipped:
		return StyleSubtle.Render(n.Name)
	default:
		return StyleText.Render(n.Name)
	}
}

// enrichmentMarks summarizes fetched enrichment: detail, links, roles.
func enrichmentMarks(n *mindmap.Node) string {
	var marks []string
	if n.HasDetail() {
		marks = append(marks, "detail")
	}
	if len(n.Links) > 0 {
		marks = append(marks, "links")
	}
	if n.HasRoles() {
		marks = append(marks, "roles")
	}
	if len(marks) == 0 {
		return ""
	}
	return " " + StyleSubtle.Render("("+strings.Join(marks, ", ")+")")
}

// wrapBlock word-wraps text to width (minus the prefix) and prefixes every line.
func wrapBlock(text, prefix string, width int) string {
	text = strings.TrimSpace(text)
	if w := width - len([]rune(prefix)); width > 0 && w > 10 {
		text = wordwrap.String(text, w)
	}
	lines := strings.Split(indent.String(text, 0), "\n")
	for i, l := range lines {
		lines[i] = StyleSubtle.Render(prefix + l)
	}
	return strings.Join(lines, "\n")
}
