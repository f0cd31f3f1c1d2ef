package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// secretKeys are written with owner-only permissions.
var secretKeys = []string{"apikey", "apikeys"}

// SetGlobalValue writes key=value into the global config file, creating the
// file and its directory when needed. It returns the file path.
func SetGlobalValue(key string, value any) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("config key cannot be empty")
	}
	path, err := GlobalConfigFile()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if isSecret(key) {
		if err := os.Chmod(path, 0600); err != nil {
			return "", fmt.Errorf("restrict %s: %w", path, err)
		}
	}
	return path, nil
}

// SaveAPIKeyForProvider stores an API key under llm.apiKeys.<provider>.
func SaveAPIKeyForProvider(provider, key string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", fmt.Errorf("provider cannot be empty")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("API key cannot be empty")
	}
	return SetGlobalValue("llm.apiKeys."+provider, strings.TrimSpace(key))
}

func isSecret(key string) bool {
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		for _, s := range secretKeys {
			if part == s {
				return true
			}
		}
	}
	return false
}
