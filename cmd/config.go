package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/TaskDivider/internal/config"
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present. A missing .env is fine.
	_ = godotenv.Load()

	// Environment variable handling must be set up BEFORE reading the config file.
	viper.SetEnvPrefix(config.EnvPrefix)                   // e.g., TASKDIVIDER_LLM_PROVIDER
	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configSearchPaths() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName(config.ConfigName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		default:
			// Found but unreadable (parse error, or the --config path does not exist).
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// configSearchPaths lists the directories searched for .taskdivider.yaml,
// project-local first.
func configSearchPaths() []string {
	paths := []string{filepath.Join(".", config.ConfigName), "."}
	if dir, err := config.GetGlobalConfigDir(); err == nil {
		paths = append(paths, dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	return paths
}
