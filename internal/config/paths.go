package config

import (
	"os"
	"path/filepath"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// ConfigName is the base name of the config file (.taskdivider.yaml).
const ConfigName = ".taskdivider"

// EnvPrefix prefixes environment overrides, e.g. TASKDIVIDER_LLM_PROVIDER.
const EnvPrefix = "TASKDIVIDER"

// GetGlobalConfigDir returns the path to the global configuration directory (~/.taskdivider).
// This is the source of truth for where global config lives.
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskdivider"), nil
}

// GlobalConfigFile returns the path of the global config file.
func GlobalConfigFile() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigName+".yaml"), nil
}

// DocumentPath returns the default mindmap document path for a topic.
// Whitespace runs become underscores: "Learn Guitar" -> Learn_Guitar_mind_map.json.
func DocumentPath(topic string) string {
	return mindmap.FileName(topic, "json")
}
