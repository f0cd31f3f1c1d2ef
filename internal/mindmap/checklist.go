package mindmap

import (
	"fmt"
	"slices"
	"strings"
)

// ChecklistOp edits one evaluation checklist item.
type ChecklistOp struct {
	Kind  ChecklistOpKind
	Index int
	Text  string
}

// ChecklistOpKind selects the checklist edit.
type ChecklistOpKind string

const (
	ChecklistAdd    ChecklistOpKind = "add"
	ChecklistRemove ChecklistOpKind = "remove"
	ChecklistSet    ChecklistOpKind = "set"
)

// ApplyChecklist returns a copy of items with op applied. Editing a node
// whose checklist has not been fetched yet is rejected.
func ApplyChecklist(items []string, op ChecklistOp) ([]string, error) {
	if items == nil {
		return nil, fmt.Errorf("%w: checklist has not been generated", ErrPrecondition)
	}
	out := slices.Clone(items)
	text := strings.TrimSpace(op.Text)

	switch op.Kind {
	case ChecklistAdd:
		if text == "" {
			return nil, fmt.Errorf("checklist item text is empty")
		}
		return append(out, text), nil
	case ChecklistRemove:
		if op.Index < 0 || op.Index >= len(out) {
			return nil, fmt.Errorf("checklist index %d out of range [0,%d)", op.Index, len(out))
		}
		return slices.Delete(out, op.Index, op.Index+1), nil
	case ChecklistSet:
		if op.Index < 0 || op.Index >= len(out) {
			return nil, fmt.Errorf("checklist index %d out of range [0,%d)", op.Index, len(out))
		}
		if text == "" {
			return nil, fmt.Errorf("checklist item text is empty")
		}
		out[op.Index] = text
		return out, nil
	default:
		return nil, fmt.Errorf("unknown checklist operation %q", op.Kind)
	}
}
