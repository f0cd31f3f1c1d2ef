package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

func sampleTree() *mindmap.Node {
	detail := "practice daily"
	return &mindmap.Node{
		ID:   "Learn-Guitar",
		Name: "Learn Guitar",
		Subtopics: []*mindmap.Node{
			{
				ID:         "Learn-Guitar-Basics",
				ParentID:   "Learn-Guitar",
				Name:       "Basics",
				Details:    "Chords and strumming patterns for beginners",
				Status:     mindmap.StatusDone,
				TaskDetail: &detail,
				Subtopics: []*mindmap.Node{
					{ID: "Learn-Guitar-Basics-Chords", ParentID: "Learn-Guitar-Basics", Name: "Chords"},
				},
			},
			{ID: "Learn-Guitar-Songs", ParentID: "Learn-Guitar", Name: "Songs", Links: []mindmap.Link{{Title: "t", URL: "https://x.dev"}}},
		},
	}
}

func TestRenderTree(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := RenderTree(sampleTree(), TreeOptions{ShowIDs: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], "Learn Guitar")
	assert.Contains(t, lines[1], "├── ✓ Basics [Learn-Guitar-Basics] (detail)")
	assert.Contains(t, lines[2], "│   └── ○ Chords")
	assert.Contains(t, lines[3], "└── ○ Songs")
	assert.Contains(t, lines[3], "(links)")
}

func TestRenderTreeOptions(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tests := []struct {
		name     string
		opts     TreeOptions
		contains []string
		excludes []string
	}{
		{
			name:     "max depth elides children",
			opts:     TreeOptions{MaxDepth: 1},
			contains: []string{"Basics", "…"},
			excludes: []string{"Chords"},
		},
		{
			name:     "details shown",
			opts:     TreeOptions{ShowDetails: true},
			contains: []string{"Chords and strumming"},
		},
		{
			name:     "details wrapped",
			opts:     TreeOptions{ShowDetails: true, Width: 30},
			contains: []string{"Chords and"},
			excludes: []string{"Chords and strumming patterns for beginners"},
		},
		{
			name:     "ids hidden by default",
			excludes: []string{"[Learn-Guitar-Basics]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderTree(sampleTree(), tt.opts)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderTreeNil(t *testing.T) {
	assert.Empty(t, RenderTree(nil, TreeOptions{}))
}
