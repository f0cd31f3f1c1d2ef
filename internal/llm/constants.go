package llm

// Provider constants
const (
	// DefaultProvider is the default LLM provider
	DefaultProvider = ProviderOpenAI

	// ProviderOpenAI represents the OpenAI provider
	ProviderOpenAI = "openai"

	// ProviderOllama represents a local Ollama server
	ProviderOllama = "ollama"

	// ProviderAnthropic represents the Anthropic provider
	ProviderAnthropic = "anthropic"

	// ProviderGemini represents the Google Gemini provider
	ProviderGemini = "gemini"

	// ProviderDeepSeek represents DeepSeek's OpenAI-compatible API, driven
	// in JSON mode.
	ProviderDeepSeek = "deepseek"
)

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// DefaultDeepSeekURL is the OpenAI-compatible endpoint for DeepSeek.
const DefaultDeepSeekURL = "https://api.deepseek.com/v1"

// DefaultMaxTokens caps completions for providers that require an explicit limit.
const DefaultMaxTokens = 4096
