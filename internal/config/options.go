// Package config loads TaskDivider settings from Viper (config file, TASKDIVIDER_*
// environment variables and flags) into typed, validated structs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/josephgoksu/TaskDivider/internal/mindmap"
)

// Expansion timeout bounds.
const (
	DefaultExpansionTimeout = 90 * time.Second
	MinExpansionTimeout     = 10 * time.Second
	MaxExpansionTimeout     = 120 * time.Second
)

// DefaultMaxRetries is the number of extra generation attempts.
const DefaultMaxRetries = 2

var validate = validator.New()

// MindmapOptions configures tree merging and the expansion orchestrator.
type MindmapOptions struct {
	ExpansionTimeout time.Duration  `mapstructure:"expansionTimeout"`
	Policy           mindmap.Policy `mapstructure:",squash"`
	MaxRetries       int            `mapstructure:"maxRetries" validate:"min=0,max=10"`
}

// DefaultMindmapOptions returns the built-in defaults.
func DefaultMindmapOptions() MindmapOptions {
	return MindmapOptions{
		ExpansionTimeout: DefaultExpansionTimeout,
		Policy:           mindmap.DefaultPolicy(),
		MaxRetries:       DefaultMaxRetries,
	}
}

// ClampExpansionTimeout bounds d to [MinExpansionTimeout, MaxExpansionTimeout].
// Zero or negative values yield the default.
func ClampExpansionTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultExpansionTimeout
	case d < MinExpansionTimeout:
		return MinExpansionTimeout
	case d > MaxExpansionTimeout:
		return MaxExpansionTimeout
	default:
		return d
	}
}

// LoadMindmapOptions reads mindmap.* keys.
func LoadMindmapOptions() (MindmapOptions, error) {
	opts := DefaultMindmapOptions()
	if viper.IsSet("mindmap.expansionTimeout") {
		opts.ExpansionTimeout = viper.GetDuration("mindmap.expansionTimeout")
	}
	opts.ExpansionTimeout = ClampExpansionTimeout(opts.ExpansionTimeout)
	if v := strings.TrimSpace(viper.GetString("mindmap.graftPolicy")); v != "" {
		opts.Policy.Graft = mindmap.GraftPolicy(strings.ToLower(v))
	}
	if v := strings.TrimSpace(viper.GetString("mindmap.collisionPolicy")); v != "" {
		opts.Policy.Collision = mindmap.CollisionPolicy(strings.ToLower(v))
	}
	if viper.IsSet("mindmap.maxRetries") {
		opts.MaxRetries = viper.GetInt("mindmap.maxRetries")
	}
	if err := validateStruct(opts); err != nil {
		return MindmapOptions{}, fmt.Errorf("mindmap config: %w", err)
	}
	return opts, nil
}

// Search providers.
const (
	SearchGoogle = "google"
	SearchNone   = "none"
)

// SearchConfig configures the link search collaborator.
type SearchConfig struct {
	Provider    string `mapstructure:"provider" validate:"oneof=google none"`
	APIKey      string `mapstructure:"apiKey"`
	CX          string `mapstructure:"cx"`
	Limit       int    `mapstructure:"limit" validate:"min=1,max=10"`
	QuerySuffix string `mapstructure:"querySuffix"`
	RefineQuery bool   `mapstructure:"refineQuery"`
}

// LoadSearchConfig reads search.* keys. Credentials fall back to GOOGLE_API_KEY
// and GOOGLE_CX. Without credentials the provider is "none".
func LoadSearchConfig() (SearchConfig, error) {
	cfg := SearchConfig{
		Provider:    strings.ToLower(strings.TrimSpace(viper.GetString("search.provider"))),
		APIKey:      strings.TrimSpace(viper.GetString("search.apiKey")),
		CX:          strings.TrimSpace(viper.GetString("search.cx")),
		Limit:       3,
		QuerySuffix: viper.GetString("search.querySuffix"),
		RefineQuery: viper.GetBool("search.refineQuery"),
	}
	if viper.IsSet("search.limit") {
		cfg.Limit = viper.GetInt("search.limit")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if cfg.CX == "" {
		cfg.CX = strings.TrimSpace(os.Getenv("GOOGLE_CX"))
	}
	if cfg.Provider == "" {
		cfg.Provider = SearchNone
		if cfg.APIKey != "" && cfg.CX != "" {
			cfg.Provider = SearchGoogle
		}
	}
	if err := validateStruct(cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("search config: %w", err)
	}
	if cfg.Provider == SearchGoogle && (cfg.APIKey == "" || cfg.CX == "") {
		return SearchConfig{}, errors.New("search config: google search requires search.apiKey and search.cx (or GOOGLE_API_KEY and GOOGLE_CX)")
	}
	return cfg, nil
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// LoadLogConfig reads log.* keys. The verbose flag forces debug.
func LoadLogConfig() (LogConfig, error) {
	cfg := LogConfig{Level: "info", Format: "text"}
	if v := strings.ToLower(strings.TrimSpace(viper.GetString("log.level"))); v != "" {
		cfg.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(viper.GetString("log.format"))); v != "" {
		cfg.Format = v
	}
	if viper.GetBool("verbose") {
		cfg.Level = "debug"
	}
	if err := validateStruct(cfg); err != nil {
		return LogConfig{}, fmt.Errorf("log config: %w", err)
	}
	return cfg, nil
}

// PromptsDir returns the prompt override directory, or "" for built-in prompts.
func PromptsDir() string {
	return strings.TrimSpace(viper.GetString("prompts.dir"))
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
