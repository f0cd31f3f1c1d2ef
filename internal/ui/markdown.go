package ui

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// RenderMarkdown renders md for the terminal. Non-interactive output uses the
// plain ASCII style so pipes do not receive escape codes.
func RenderMarkdown(md string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if IsInteractive() {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStyles(styles.ASCIIStyleConfig))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// RenderNodeMarkdown renders a subtree the way the markdown export writes it.
func RenderNodeMarkdown(n *mindmap.Node, width int) (string, error) {
	var buf bytes.Buffer
	if err := mindmap.WriteMarkdown(&buf, n); err != nil {
		return "", err
	}
	return RenderMarkdown(buf.String(), width)
}

// RenderDetail renders a node's fetched detail, checklist and links as a
// markdown document.
func RenderDetail(n *mindmap.Node, width int) (string, error) {
	var b strings.Builder
	b.WriteString("# " + n.Name + "\n\n")
	if n.Details != "" {
		b.WriteString(n.Details + "\n\n")
	}
	if n.TaskDetail != nil {
		b.WriteString("## Detail\n\n" + *n.TaskDetail + "\n\n")
	}
	if len(n.EvaluationChecklist) > 0 {
		b.WriteString("## Evaluation checklist\n\n")
		for _, item := range n.EvaluationChecklist {
			b.WriteString("- [ ] " + item + "\n")
		}
		b.WriteString("\n")
	}
	if len(n.Links) > 0 {
		b.WriteString("## Links\n\n")
		for _, l := range n.Links {
			b.WriteString("- [" + l.Title + "](" + l.URL + ") _" + string(l.Type) + "_\n")
		}
	}
	return RenderMarkdown(b.String(), width)
}
