package generation

import (
	"strings"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// Detail is the detail/checklist payload for one node.
type Detail struct {
	TaskDetail          string   `json:"taskDetail" validate:"required,nonempty"`
	EvaluationChecklist []string `json:"evaluationChecklist" validate:"required,min=1,dive,nonempty"`
}

// Validate checks the payload and trims checklist items.
func (d *Detail) Validate() mindmap.ValidationResult {
	d.TaskDetail = strings.TrimSpace(d.TaskDetail)
	for i, item := range d.EvaluationChecklist {
		d.EvaluationChecklist[i] = strings.TrimSpace(item)
	}
	return mindmap.ValidateStruct(d)
}

// Roles is the role/responsibility payload.
type Roles struct {
	Roles []mindmap.RoleAssignment `json:"roles" validate:"required,min=1,dive"`
}

// Validate checks every role assignment.
func (r *Roles) Validate() mindmap.ValidationResult {
	for i := range r.Roles {
		r.Roles[i].Role = strings.TrimSpace(r.Roles[i].Role)
		r.Roles[i].Responsibility = strings.TrimSpace(r.Roles[i].Responsibility)
		r.Roles[i].Reason = strings.TrimSpace(r.Roles[i].Reason)
	}
	return mindmap.ValidateStruct(r)
}

// SearchQuery is the refined web search query for a node.
type SearchQuery struct {
	Query string `json:"query" validate:"required,nonempty,max=256"`
}

// Validate strips quoting the model sometimes adds around the query.
func (q *SearchQuery) Validate() mindmap.ValidationResult {
	q.Query = strings.Trim(strings.TrimSpace(q.Query), `"'`)
	return mindmap.ValidateStruct(q)
}
