// Package llm provides a unified interface for LLM providers using CloudWeGo Eino.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string   // Required for hosted providers
	BaseURL     string   // Optional endpoint override; Ollama defaults to DefaultOllamaURL
	Temperature *float32 // Provider default when nil
}

// CloseableChatModel is a chat model that may hold a client needing release.
type CloseableChatModel struct {
	model.BaseChatModel
	closer interface{ Close() error }
	once   sync.Once
}

// Close releases the underlying client. It is safe to call more than once.
func (c *CloseableChatModel) Close() error {
	var err error
	c.once.Do(func() {
		if c.closer != nil {
			err = c.closer.Close()
		}
	})
	return err
}

// genaiClientCloser drops the reference to a Gemini client. The genai client
// owns no resources beyond its HTTP client.
type genaiClientCloser struct {
	client *genai.Client
}

func (g *genaiClientCloser) Close() error {
	g.client = nil
	return nil
}

// NewChatModel creates a ChatModel instance based on the provider configuration.
// It returns an Eino BaseChatModel that can be used for Generate() or Stream() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	cm, err := NewCloseableChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cm.BaseChatModel, nil
}

// NewCloseableChatModel creates a chat model together with its closer.
func NewCloseableChatModel(ctx context.Context, cfg Config) (*CloseableChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModelForProvider(string(cfg.Provider))
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       modelName,
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic API key is required")
		}
		ccfg := &claude.Config{
			APIKey:      cfg.APIKey,
			Model:       modelName,
			MaxTokens:   DefaultMaxTokens,
			Temperature: cfg.Temperature,
		}
		if cfg.BaseURL != "" {
			ccfg.BaseURL = &cfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, ccfg)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm}, nil

	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, errors.New("gemini API key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       modelName,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return &CloseableChatModel{BaseChatModel: cm, closer: &genaiClientCloser{client: client}}, nil

	case ProviderDeepSeek:
		if cfg.APIKey == "" {
			return nil, errors.New("deepseek API key is required")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultDeepSeekURL
		}
		return &CloseableChatModel{BaseChatModel: NewJSONModeChatModel(JSONModeConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       modelName,
			Temperature: cfg.Temperature,
		})}, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai, ollama, anthropic, gemini, deepseek)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch p {
	case ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini, ProviderDeepSeek:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}

// RequiresAPIKey reports whether the provider is a hosted API.
func RequiresAPIKey(p Provider) bool {
	return p != ProviderOllama
}
