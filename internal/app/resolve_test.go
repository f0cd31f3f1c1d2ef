package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

func resolveTree(t *testing.T) *mindmap.Tree {
	t.Helper()
	tree, err := mindmap.New("Learn Guitar", mindmap.DefaultPolicy())
	require.NoError(t, err)
	tree, _, err = tree.Graft(tree.RootID(), []*mindmap.FragmentNode{
		{Name: "Basics", Children: []*mindmap.FragmentNode{{Name: "Open Chords"}, {Name: "Tuning"}}},
		{Name: "Songs", Children: []*mindmap.FragmentNode{{Name: "Tuning"}}},
	})
	require.NoError(t, err)
	return tree
}

func TestResolveNode(t *testing.T) {
	tree := resolveTree(t)

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{name: "exact id", ref: "Learn-Guitar-Basics-Open-Chords", want: "Learn-Guitar-Basics-Open-Chords"},
		{name: "name ignoring case", ref: "songs", want: "Learn-Guitar-Songs"},
		{name: "fuzzy name", ref: "opn chrd", want: "Learn-Guitar-Basics-Open-Chords"},
		{name: "duplicate names", ref: "Tuning", wantErr: "matches several nodes"},
		{name: "no match", ref: "zzz", wantErr: "not found"},
		{name: "empty", ref: "  ", wantErr: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNode(tree, tt.ref)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNodeNotFoundIsTyped(t *testing.T) {
	_, err := ResolveNode(resolveTree(t), "qqq")
	assert.ErrorIs(t, err, mindmap.ErrNotFound)
}

func TestSessionResolveWithoutTree(t *testing.T) {
	s := NewSession(&Context{})
	_, err := s.Resolve("Basics")
	assert.ErrorIs(t, err, ErrNoMindmap)
}
