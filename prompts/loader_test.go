package prompts

import (
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPromptDefaults(t *testing.T) {
	tests := []struct {
		name      string
		promptKey PromptKey
		contains  []string
	}{
		{name: "generate mindmap", promptKey: KeyGenerateMindmap, contains: []string{"subtopics", "parentId", "{{.Topic}}"}},
		{name: "expand node", promptKey: KeyExpandNode, contains: []string{"{{.NodeID}}", "subtopics"}},
		{name: "task detail", promptKey: KeyTaskDetail, contains: []string{"taskDetail", "evaluationChecklist"}},
		{name: "roles", promptKey: KeyRoles, contains: []string{"roles", "responsibility", "reason"}},
		{name: "search query", promptKey: KeySearchQuery, contains: []string{"query"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := GetPrompt(tt.promptKey, "")
			require.NoError(t, err)
			for _, expected := range tt.contains {
				assert.Contains(t, prompt, expected)
			}
		})
	}
}

func TestGetPromptUnknownKey(t *testing.T) {
	_, err := GetPrompt("Nope", "")
	assert.Error(t, err)
}

func TestLoaderOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/prompts"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, FileName(KeyRoles)), []byte("custom roles {{.TaskDetail}}"), 0o644))

	l := &Loader{FS: fs, Dir: dir}

	got, err := l.Get(KeyRoles)
	require.NoError(t, err)
	assert.Equal(t, "custom roles {{.TaskDetail}}", got)

	got, err = l.Get(KeyTaskDetail)
	require.NoError(t, err)
	assert.Equal(t, TaskDetailPrompt, got)
}

func TestDefaultTemplatesParse(t *testing.T) {
	data := map[string]any{
		"Topic":      "Learn Guitar",
		"NodeID":     "Learn-Guitar",
		"Path":       []string{"Music", "Learn Guitar"},
		"TaskDetail": "Practice daily",
		"Checklist":  []string{"Can play G", "Can play C"},
	}
	for _, key := range Keys() {
		content, err := GetPrompt(key, "")
		require.NoError(t, err)
		tmpl, err := template.New(string(key)).Parse(content)
		require.NoError(t, err, "template %s", key)
		var sb strings.Builder
		require.NoError(t, tmpl.Execute(&sb, data))
		assert.NotContains(t, sb.String(), "<no value>")
	}
}

func TestExpandPromptRendersPath(t *testing.T) {
	tmpl := template.Must(template.New("x").Parse(ExpandNodePrompt))
	var sb strings.Builder
	require.NoError(t, tmpl.Execute(&sb, map[string]any{
		"Topic": "Basics", "NodeID": "Learn-Guitar-Basics", "Path": []string{"Learn Guitar", "Basics"},
	}))
	assert.Contains(t, sb.String(), "Learn Guitar > Basics")
	assert.Contains(t, sb.String(), `"parentId": "Learn-Guitar-Basics"`)
}
