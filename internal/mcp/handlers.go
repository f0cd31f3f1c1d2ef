package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/josephgoksu/TaskDivider/internal/app"
	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// MaxGenerateDepth bounds mindmap_generate's depth parameter.
const MaxGenerateDepth = 3

// Handlers serves every mindmap tool from one shared session.
type Handlers struct {
	Session *app.Session
	// Persist, when set, is called after each change to the tree.
	Persist func() error
	Logger  *slog.Logger
}

// NewHandlers creates handlers for s. persist may be nil.
func NewHandlers(s *app.Session, persist func() error, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Session: s, Persist: persist, Logger: logger.With("component", "mcp")}
}

func invalid(field, message string) *ToolResult {
	return &ToolResult{Error: FormatValidationError(field, message)}
}

func (h *Handlers) persist() error {
	if h.Persist == nil {
		return nil
	}
	if err := h.Persist(); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// HandleGenerate replaces the session's mindmap with a new one for the topic.
// A failed generation still persists the tree with its error node.
func (h *Handlers) HandleGenerate(ctx context.Context, params GenerateParams) (*ToolResult, error) {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return invalid("topic", "topic is required"), nil
	}
	if params.Depth < 0 || params.Depth > MaxGenerateDepth {
		return invalid("depth", fmt.Sprintf("depth must be between 0 and %d", MaxGenerateDepth)), nil
	}

	genErr := h.Session.Generate(ctx, topic)
	if genErr != nil && h.Session.Tree() == nil {
		return nil, genErr
	}
	var notes []string
	if genErr == nil && params.Depth > 0 {
		if err := h.Session.ExpandAll(ctx, params.Depth); err != nil {
			h.Logger.Warn("expand all failed", "error", err)
			notes = append(notes, "Some nodes could not be expanded: "+err.Error())
		}
	}
	if err := h.persist(); err != nil {
		return nil, err
	}
	if genErr != nil {
		return nil, genErr
	}
	return h.treeResult("", notes...)
}

// HandleExpand generates subtasks for one node.
func (h *Handlers) HandleExpand(ctx context.Context, params NodeParams) (*ToolResult, error) {
	id, res := h.resolve(params.Node)
	if res != nil {
		return res, nil
	}
	if err := h.Session.Expand(ctx, id); err != nil {
		return nil, err
	}
	if err := h.persist(); err != nil {
		return nil, err
	}
	return h.treeResult(id)
}

// HandleSelect fetches detail, checklist and links for a node.
func (h *Handlers) HandleSelect(ctx context.Context, params NodeParams) (*ToolResult, error) {
	id, res := h.resolve(params.Node)
	if res != nil {
		return res, nil
	}
	selErr := h.Session.SelectNode(ctx, id)
	if err := h.persist(); err != nil {
		return nil, err
	}
	if selErr != nil {
		return nil, selErr
	}
	return h.nodeResult(id)
}

// HandleRoles generates role assignments for a node whose detail has been fetched.
func (h *Handlers) HandleRoles(ctx context.Context, params NodeParams) (*ToolResult, error) {
	id, res := h.resolve(params.Node)
	if res != nil {
		return res, nil
	}
	if err := h.Session.GenerateRolesForNode(ctx, id); err != nil {
		if errors.Is(err, mindmap.ErrPrecondition) {
			return &ToolResult{Error: FormatError(err.Error() + ". Call " + ToolSelect + " first.")}, nil
		}
		return nil, err
	}
	if err := h.persist(); err != nil {
		return nil, err
	}
	n, err := h.Session.Node(id)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Content: FormatRoles(n.RRData)}, nil
}

// HandleUpdate applies field edits and at most one checklist edit.
func (h *Handlers) HandleUpdate(_ context.Context, params UpdateParams) (*ToolResult, error) {
	id, res := h.resolve(params.Node)
	if res != nil {
		return res, nil
	}

	var patch mindmap.Patch
	if params.Name != "" {
		patch.Name = &params.Name
	}
	if params.Details != "" {
		patch.Details = &params.Details
	}
	if params.Status != "" {
		st, err := mindmap.ParseStatus(params.Status)
		if err != nil {
			return invalid("status", err.Error()), nil
		}
		patch.Status = &st
	}
	if params.ChecklistAction != "" && !params.ChecklistAction.IsValid() {
		return invalid("checklist_action", fmt.Sprintf("invalid action %q, must be one of: add, remove, set", params.ChecklistAction)), nil
	}
	if patch.IsEmpty() && params.ChecklistAction == "" {
		return invalid("node", "nothing to update; pass name, details, status or checklist_action"), nil
	}

	if err := h.Session.UpdateNodeFields(id, patch); err != nil {
		return nil, err
	}
	if params.ChecklistAction != "" {
		op := params.ChecklistAction.Op(params.ChecklistIndex, params.ChecklistText)
		if err := h.Session.EditChecklist(id, op); err != nil {
			// Field edits above are kept.
			_ = h.persist()
			return nil, err
		}
	}
	if err := h.persist(); err != nil {
		return nil, err
	}
	return h.nodeResult(id)
}

// HandleDelete removes a node and its subtasks.
func (h *Handlers) HandleDelete(_ context.Context, params NodeParams) (*ToolResult, error) {
	id, res := h.resolve(params.Node)
	if res != nil {
		return res, nil
	}
	removed, err := h.Session.DeleteNode(id)
	if err != nil {
		return nil, err
	}
	if err := h.persist(); err != nil {
		return nil, err
	}
	return &ToolResult{Content: fmt.Sprintf("Deleted `%s` and %d subtask(s).", id, len(removed)-1)}, nil
}

// HandleExport returns the mindmap as JSON, Markdown or YAML.
func (h *Handlers) HandleExport(_ context.Context, params ExportParams) (*ToolResult, error) {
	format := params.Format
	if strings.TrimSpace(format) == "" {
		format = app.FormatMarkdown
	}
	switch app.NormalizeFormat(format) {
	case app.FormatJSON, app.FormatMarkdown, app.FormatYAML:
	default:
		return invalid("format", fmt.Sprintf("unsupported format %q, must be one of: json, markdown, yaml", format)), nil
	}
	var buf bytes.Buffer
	if err := h.Session.Export(&buf, format); err != nil {
		return nil, err
	}
	return &ToolResult{Content: buf.String()}, nil
}

// resolve maps a node reference onto an id, or returns a validation result.
func (h *Handlers) resolve(ref string) (string, *ToolResult) {
	if strings.TrimSpace(ref) == "" {
		return "", invalid("node", "node is required")
	}
	id, err := h.Session.Resolve(ref)
	if err != nil {
		if errors.Is(err, app.ErrNoMindmap) {
			return "", &ToolResult{Error: FormatError("No mindmap yet. Call " + ToolGenerate + " first.")}
		}
		return "", invalid("node", err.Error())
	}
	return id, nil
}

func (h *Handlers) treeResult(id string, notes ...string) (*ToolResult, error) {
	t := h.Session.Tree()
	if t == nil {
		return nil, app.ErrNoMindmap
	}
	if id == "" {
		id = t.RootID()
	}
	sub, err := t.Subtree(id)
	if err != nil {
		return nil, err
	}
	content := FormatTree(sub)
	for _, n := range notes {
		content += "\n\n> " + n
	}
	return &ToolResult{Content: content}, nil
}

func (h *Handlers) nodeResult(id string) (*ToolResult, error) {
	n, err := h.Session.Node(id)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Content: FormatNode(n)}, nil
}
