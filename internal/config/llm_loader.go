package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/josephgoksu/TaskDivider/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig loads LLM configuration from Viper and Environment variables.
// It handles precedence: Explicit Viper Config > Environment Variables > Defaults.
// It does NOT handle interactive prompts (that belongs in the CLI layer).
func LoadLLMConfig() (llm.Config, error) {
	return loadLLMConfig("llm.provider", "llm.model", "llm.baseURL")
}

// LoadFallbackLLMConfig loads the optional fallback model from llm.fallback.*.
// It returns nil when no fallback provider or model is configured.
func LoadFallbackLLMConfig() (*llm.Config, error) {
	provider := strings.TrimSpace(viper.GetString("llm.fallback.provider"))
	model := strings.TrimSpace(viper.GetString("llm.fallback.model"))
	if provider == "" && model == "" {
		return nil, nil
	}
	if provider == "" {
		if _, ok := llm.InferProviderFromModel(model); !ok {
			return nil, fmt.Errorf("cannot infer provider for fallback model %q; set llm.fallback.provider", model)
		}
	}
	cfg, err := loadLLMConfig("llm.fallback.provider", "llm.fallback.model", "llm.fallback.baseURL")
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	return &cfg, nil
}

func loadLLMConfig(providerKey, modelKey, baseURLKey string) (llm.Config, error) {
	// 1. Provider
	provider := strings.TrimSpace(viper.GetString(providerKey))
	model := strings.TrimSpace(viper.GetString(modelKey))
	if provider == "" && model != "" {
		if inferred, ok := llm.InferProviderFromModel(model); ok {
			provider = inferred
		}
	}
	if provider == "" {
		provider = llm.DefaultProvider
	}

	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	// 2. Model
	if model == "" {
		model = llm.DefaultModelForProvider(string(llmProvider))
	}

	// 3. API Key
	// Missing keys are reported by the client factory, Ollama needs none.
	apiKey := ResolveAPIKey(llmProvider)

	// 4. Base URL
	baseURL := viper.GetString(baseURLKey)
	if baseURL == "" {
		switch llmProvider {
		case llm.ProviderOllama:
			baseURL = llm.DefaultOllamaURL
		case llm.ProviderDeepSeek:
			baseURL = llm.DefaultDeepSeekURL
		}
	}

	cfg := llm.Config{
		Provider: llmProvider,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
	}

	// 5. Temperature
	if viper.IsSet("llm.temperature") {
		t := float32(viper.GetFloat64("llm.temperature"))
		if t < 0 || t > 2 {
			return llm.Config{}, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", t)
		}
		cfg.Temperature = &t
	}
	return cfg, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, then provider-specific env vars.
func ResolveAPIKey(provider llm.Provider) string {
	keyFromViper := func(path string) string {
		if viper.IsSet(path) {
			return strings.TrimSpace(viper.GetString(path))
		}
		return ""
	}

	// 1) Per-provider config key (llm.apiKeys.<provider>)
	if key := keyFromViper(fmt.Sprintf("llm.apiKeys.%s", provider)); key != "" {
		return key
	}

	// 2) Provider-specific env vars
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	case llm.ProviderDeepSeek:
		return strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	default:
		return ""
	}
}
