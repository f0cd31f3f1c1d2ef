package llm

import (
	"fmt"
	"sort"
	"strings"
)

// Model is one entry of the model catalogue shown by `config models`.
// Prices are USD per million tokens; local models have none.
type Model struct {
	ID          string
	Provider    string
	ProviderID  string
	Aliases     []string
	InputPer1M  float64
	OutputPer1M float64
	IsDefault   bool
}

func catalogModel(providerID, id string, in, out float64, aliases ...string) Model {
	return Model{
		ID:          id,
		Provider:    providerNames[providerID],
		ProviderID:  providerID,
		Aliases:     aliases,
		InputPer1M:  in,
		OutputPer1M: out,
	}
}

func preferred(m Model) Model {
	m.IsDefault = true
	return m
}

var providerNames = map[string]string{
	ProviderOpenAI:    "OpenAI",
	ProviderAnthropic: "Anthropic",
	ProviderGemini:    "Google",
	ProviderDeepSeek:  "DeepSeek",
	ProviderOllama:    "Ollama",
}

// ModelRegistry is the model catalogue. Model IDs outside it are accepted
// but carry no pricing. Prices as of 2025-12.
var ModelRegistry = []Model{
	preferred(catalogModel(ProviderOpenAI, "gpt-5-mini", 0.22, 1.80, "gpt-5-mini-2025-08-07")),
	catalogModel(ProviderOpenAI, "gpt-5-nano", 0.04, 0.36, "gpt-5-nano-2025-09-25"),
	catalogModel(ProviderOpenAI, "gpt-4.1-mini", 0.15, 0.60, "gpt-4.1-mini-2025-04-14"),
	catalogModel(ProviderOpenAI, "gpt-4o", 2.50, 10.00, "gpt-4o-2024-08-06"),
	catalogModel(ProviderOpenAI, "gpt-4o-mini", 0.15, 0.60, "gpt-4o-mini-2024-07-18"),

	preferred(catalogModel(ProviderAnthropic, "claude-3-5-sonnet-latest", 3.00, 15.00, "claude-3-5-sonnet-20241022")),
	catalogModel(ProviderAnthropic, "claude-3-5-haiku-latest", 0.80, 4.00, "claude-3-5-haiku-20241022"),

	preferred(catalogModel(ProviderGemini, "gemini-2.0-flash", 0.10, 0.40)),
	catalogModel(ProviderGemini, "gemini-2.5-flash", 0.30, 2.50),
	catalogModel(ProviderGemini, "gemini-2.5-pro", 1.25, 10.00),

	preferred(catalogModel(ProviderDeepSeek, "deepseek-chat", 0.27, 1.10)),

	preferred(catalogModel(ProviderOllama, "llama3.2", 0, 0)),
}

// byName indexes the catalogue by ID and alias.
var byName = func() map[string]*Model {
	idx := make(map[string]*Model, len(ModelRegistry)*2)
	for i := range ModelRegistry {
		m := &ModelRegistry[i]
		idx[m.ID] = m
		for _, a := range m.Aliases {
			idx[a] = m
		}
	}
	return idx
}()

// LookupModel finds a catalogue entry by ID or alias, or returns nil.
func LookupModel(name string) *Model {
	return byName[name]
}

// DefaultModelForProvider returns the model used when none is configured,
// or "" for an unknown provider. OpenAI models are pinned to their dated
// snapshot.
func DefaultModelForProvider(provider string) string {
	for _, m := range ModelRegistry {
		if m.ProviderID != provider || !m.IsDefault {
			continue
		}
		if provider == ProviderOpenAI && len(m.Aliases) > 0 {
			return m.Aliases[0]
		}
		return m.ID
	}
	return ""
}

var providerPrefixes = []struct {
	provider string
	prefixes []string
}{
	{ProviderOpenAI, []string{"gpt-", "o1", "o3", "o4"}},
	{ProviderAnthropic, []string{"claude-"}},
	{ProviderGemini, []string{"gemini-"}},
	{ProviderDeepSeek, []string{"deepseek-"}},
	{ProviderOllama, []string{"llama", "mistral", "qwen", "phi"}},
}

// InferProviderFromModel guesses the provider of a model name, first from
// the catalogue and then from well-known name prefixes.
func InferProviderFromModel(name string) (string, bool) {
	if m := LookupModel(name); m != nil {
		return m.ProviderID, true
	}
	for _, pp := range providerPrefixes {
		for _, p := range pp.prefixes {
			if strings.HasPrefix(name, p) {
				return pp.provider, true
			}
		}
	}
	return "", false
}

// ModelsForProvider lists a provider's catalogue entries, default first.
func ModelsForProvider(providerID string) []Model {
	var out []Model
	for _, m := range ModelRegistry {
		if m.ProviderID == providerID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PriceInfo renders the model's pricing for the models table.
func (m Model) PriceInfo() string {
	if m.InputPer1M == 0 && m.OutputPer1M == 0 {
		return "local/free"
	}
	return fmt.Sprintf("$%.2f/$%.2f per 1M tokens", m.InputPer1M, m.OutputPer1M)
}

// CalculateCost prices one call. Models outside the catalogue cost nothing.
func CalculateCost(modelID string, inputTokens, outputTokens int) float64 {
	m := LookupModel(modelID)
	if m == nil {
		return 0
	}
	return (float64(inputTokens)*m.InputPer1M + float64(outputTokens)*m.OutputPer1M) / 1e6
}
