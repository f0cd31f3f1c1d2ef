package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// === Tree Formatters ===

// FormatTree converts a subtree into a token-efficient nested Markdown list
// with ids, so the client can reference nodes in later calls.
func FormatTree(root *mindmap.Node) string {
	if root == nil {
		return "No mindmap."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n`%s`", root.Name, root.ID))
	if root.Details != "" {
		sb.WriteString(" " + root.Details)
	}
	sb.WriteString("\n\n")
	for _, c := range root.Subtopics {
		writeTreeItem(&sb, c, 0)
	}
	return strings.TrimSpace(sb.String())
}

func writeTreeItem(sb *strings.Builder, n *mindmap.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(fmt.Sprintf("- %s **%s** `%s`", statusIcon(n.Status), n.Name, n.ID))
	if n.Details != "" {
		sb.WriteString(": " + truncate(n.Details, 120))
	}
	sb.WriteString("\n")
	for _, c := range n.Subtopics {
		writeTreeItem(sb, c, depth+1)
	}
}

// FormatNode converts one node's enrichment into Markdown.
func FormatNode(n *mindmap.Node) string {
	if n == nil {
		return "No node."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s %s\n", statusIcon(n.Status), n.Name))
	sb.WriteString(fmt.Sprintf("**ID**: `%s` | **Status**: %s\n\n", n.ID, n.Status.Label()))
	if n.Details != "" {
		sb.WriteString(n.Details + "\n\n")
	}
	if n.TaskDetail != nil {
		sb.WriteString("### Detail\n")
		sb.WriteString(*n.TaskDetail + "\n\n")
	}
	if len(n.EvaluationChecklist) > 0 {
		sb.WriteString("### Evaluation Checklist\n")
		for i, item := range n.EvaluationChecklist {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
		}
		sb.WriteString("\n")
	}
	if len(n.Links) > 0 {
		sb.WriteString("### Links\n")
		for _, l := range n.Links {
			sb.WriteString(fmt.Sprintf("- [%s](%s) (%s)\n", l.Title, l.URL, l.Type))
		}
		sb.WriteString("\n")
	}
	if n.HasRoles() {
		sb.WriteString(FormatRoles(n.RRData))
	}
	return strings.TrimSpace(sb.String())
}

// FormatRoles renders role assignments as a Markdown table.
func FormatRoles(roles []mindmap.RoleAssignment) string {
	if len(roles) == 0 {
		return "No roles assigned."
	}
	var sb strings.Builder
	sb.WriteString("### Roles\n")
	sb.WriteString("| Role | Responsibility | Reason |\n|---|---|---|\n")
	for _, r := range roles {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", cell(r.Role), cell(r.Responsibility), cell(r.Reason)))
	}
	return sb.String()
}

// === Error Formatters ===

// FormatError returns a standardized Markdown error message.
// Use this for all MCP tool error responses to ensure consistency.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for validation failures.
func FormatValidationError(field, message string) string {
	return fmt.Sprintf("## Validation Error\n\n**Field**: `%s`\n**Details**: %s", field, message)
}

func statusIcon(s mindmap.Status) string {
	switch s {
	case mindmap.StatusDone:
		return "[x]"
	case mindmap.StatusInProgress:
		return "[~]"
	case mindmap.StatusSkipped:
		return "[-]"
	default:
		return "[ ]"
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// cell escapes pipes and newlines for a table cell.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
