package mindmap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the schema version written by Export.
const DocumentVersion = 1

// Document is the full-fidelity export of a tree.
type Document struct {
	Version    int       `json:"version" yaml:"version"`
	Topic      string    `json:"topic" yaml:"topic"`
	ExportedAt time.Time `json:"exportedAt" yaml:"exportedAt"`
	Root       *Node     `json:"root" yaml:"root"`
}

// NewDocument wraps a snapshot of t.
func NewDocument(t *Tree, now time.Time) *Document {
	return &Document{
		Version:    DocumentVersion,
		Topic:      t.Topic(),
		ExportedAt: now.UTC(),
		Root:       t.Snapshot(),
	}
}

// Tree rebuilds the live tree described by the document.
func (d *Document) Tree(policy Policy) (*Tree, error) {
	if d.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidDocument, d.Version)
	}
	return FromNode(d.Root, policy)
}

// WriteJSON writes the document as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// WriteYAML writes the document as YAML.
func (d *Document) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if d.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrInvalidDocument)
	}
	return &d, nil
}

// FileName returns the default export file name for a topic, e.g.
// "Learn_Guitar_mind_map.json".
func FileName(topic, ext string) string {
	base := whitespaceRun.ReplaceAllString(strings.TrimSpace(topic), "_")
	if base == "" {
		base = "untitled"
	}
	return base + "_mind_map." + strings.TrimPrefix(ext, ".")
}

var titleCaser = cases.Title(language.English)

// Label returns the human-readable status, e.g. "In Progress".
func (s Status) Label() string {
	if s == "" {
		s = StatusNotStarted
	}
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// WriteMarkdown renders the tree as an outline: a heading per node, details
// as body text, the checklist as a bullet list and links as sub-bullets.
// The output is for reading and is not parsed back.
func WriteMarkdown(w io.Writer, root *Node) error {
	var b strings.Builder
	writeMarkdownNode(&b, root, 1)
	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

func writeMarkdownNode(b *strings.Builder, n *Node, level int) {
	heading := min(level, 6)
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", heading), n.Name)

	if d := strings.TrimSpace(n.Details); d != "" {
		b.WriteString(d + "\n\n")
	}
	if n.Status != "" && n.Status != StatusNotStarted {
		fmt.Fprintf(b, "**Status:** %s\n\n", n.Status.Label())
	}
	if n.TaskDetail != nil && strings.TrimSpace(*n.TaskDetail) != "" {
		b.WriteString(strings.TrimSpace(*n.TaskDetail) + "\n\n")
	}

	var list strings.Builder
	mark := " "
	if n.Status == StatusDone {
		mark = "x"
	}
	for _, item := range n.EvaluationChecklist {
		fmt.Fprintf(&list, "- [%s] %s\n", mark, item)
	}
	if len(n.Links) > 0 {
		list.WriteString("- Resources\n")
		for _, l := range n.Links {
			fmt.Fprintf(&list, "  - [%s](%s) (%s)\n", l.Title, l.URL, l.Type)
		}
	}
	if len(n.RRData) > 0 {
		list.WriteString("- Roles\n")
		for _, r := range n.RRData {
			fmt.Fprintf(&list, "  - **%s**: %s", r.Role, r.Responsibility)
			if r.Reason != "" {
				fmt.Fprintf(&list, " (%s)", r.Reason)
			}
			list.WriteString("\n")
		}
	}
	if list.Len() > 0 {
		b.WriteString(list.String() + "\n")
	}

	for _, c := range n.Subtopics {
		writeMarkdownNode(b, c, level+1)
	}
}
