package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

func TestFormatTree(t *testing.T) {
	root := &mindmap.Node{
		ID: "Learn-Guitar", Name: "Learn Guitar",
		Subtopics: []*mindmap.Node{
			{ID: "Learn-Guitar-Basics", Name: "Basics", Details: "Posture", Status: mindmap.StatusDone,
				Subtopics: []*mindmap.Node{{ID: "Learn-Guitar-Basics-Tuning", Name: "Tuning"}}},
		},
	}

	got := FormatTree(root)
	want := "## Learn Guitar\n`Learn-Guitar`\n\n" +
		"- [x] **Basics** `Learn-Guitar-Basics`: Posture\n" +
		"  - [ ] **Tuning** `Learn-Guitar-Basics-Tuning`"
	assert.Equal(t, want, got)
	assert.Equal(t, "No mindmap.", FormatTree(nil))
}

func TestFormatNode(t *testing.T) {
	detail := "Use a clip-on tuner."
	n := &mindmap.Node{
		ID: "Learn-Guitar-Basics-Tuning", Name: "Tuning", Status: mindmap.StatusInProgress,
		TaskDetail:          &detail,
		EvaluationChecklist: []string{"Tune all six strings"},
		Links:               []mindmap.Link{{Title: "Tuner", Type: "website", URL: "https://example.com"}},
		RRData:              []mindmap.RoleAssignment{{Role: "Learner", Responsibility: "Tune | check", Reason: "Sound"}},
	}

	got := FormatNode(n)
	assert.True(t, strings.HasPrefix(got, "## [~] Tuning\n"))
	assert.Contains(t, got, "### Detail\nUse a clip-on tuner.")
	assert.Contains(t, got, "1. Tune all six strings")
	assert.Contains(t, got, "- [Tuner](https://example.com) (website)")
	assert.Contains(t, got, `| Learner | Tune \| check | Sound |`)
}

func TestFormatRolesEmpty(t *testing.T) {
	assert.Equal(t, "No roles assigned.", FormatRoles(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
}

func TestChecklistActionOp(t *testing.T) {
	op := ChecklistActionSet.Op(2, "x")
	assert.Equal(t, mindmap.ChecklistOp{Kind: mindmap.ChecklistSet, Index: 1, Text: "x"}, op)
	assert.False(t, ChecklistAction("append").IsValid())
}
