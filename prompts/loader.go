package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PromptKey is a type for identifying specific prompts.
type PromptKey string

const (
	KeyGenerateMindmap PromptKey = "GenerateMindmap"
	KeyExpandNode      PromptKey = "ExpandNode"
	KeyTaskDetail      PromptKey = "TaskDetail"
	KeyRoles           PromptKey = "Roles"
	KeySearchQuery     PromptKey = "SearchQuery"
)

// promptConfig defines the default content and filename for a prompt.
type promptConfig struct {
	defaultContent string
	filename       string
}

// promptRegistry maps a PromptKey to its configuration.
var promptRegistry = map[PromptKey]promptConfig{
	KeyGenerateMindmap: {defaultContent: GenerateMindmapPrompt, filename: "generate_mindmap_prompt.txt"},
	KeyExpandNode:      {defaultContent: ExpandNodePrompt, filename: "expand_node_prompt.txt"},
	KeyTaskDetail:      {defaultContent: TaskDetailPrompt, filename: "task_detail_prompt.txt"},
	KeyRoles:           {defaultContent: RolesPrompt, filename: "roles_prompt.txt"},
	KeySearchQuery:     {defaultContent: SearchQueryPrompt, filename: "search_query_prompt.txt"},
}

// Keys returns every known prompt key.
func Keys() []PromptKey {
	return []PromptKey{KeyGenerateMindmap, KeyExpandNode, KeyTaskDetail, KeyRoles, KeySearchQuery}
}

// FileName returns the override file name for key, or "" for unknown keys.
func FileName(key PromptKey) string {
	return promptRegistry[key].filename
}

// Loader resolves prompts, preferring override files in Dir.
type Loader struct {
	FS     afero.Fs
	Dir    string
	Logger *slog.Logger
}

// NewLoader returns a loader reading overrides from dir on the OS filesystem.
// An empty dir always yields the defaults.
func NewLoader(dir string) *Loader {
	return &Loader{FS: afero.NewOsFs(), Dir: dir, Logger: slog.Default()}
}

// Get returns the override for key if its file exists in the templates
// directory, otherwise the built-in default.
func (l *Loader) Get(key PromptKey) (string, error) {
	config, ok := promptRegistry[key]
	if !ok {
		return "", fmt.Errorf("unrecognized prompt key: %s", key)
	}
	if l == nil || l.FS == nil || strings.TrimSpace(l.Dir) == "" {
		return config.defaultContent, nil
	}

	customPromptPath := filepath.Join(l.Dir, config.filename)
	content, err := afero.ReadFile(l.FS, customPromptPath)
	switch {
	case err == nil:
		if l.Logger != nil {
			l.Logger.Debug("using custom prompt", "key", key, "path", customPromptPath)
		}
		return string(content), nil
	case errors.Is(err, fs.ErrNotExist):
		return config.defaultContent, nil
	default:
		return "", fmt.Errorf("read custom prompt file at %s: %w", customPromptPath, err)
	}
}

// GetPrompt resolves key against templatesDir on the OS filesystem.
func GetPrompt(key PromptKey, templatesDir string) (string, error) {
	return NewLoader(templatesDir).Get(key)
}
