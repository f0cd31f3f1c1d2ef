// Token estimation for prompt and cost logging.
package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var encoders sync.Map // model ID -> *tiktoken.Tiktoken, or nil when unavailable

// EstimateTokens provides a heuristic-based token count estimate for text.
// Uses the approximation of ~4 characters per token, rounded up.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// CountTokens counts tokens with the model's BPE encoding when one is known
// to tiktoken (OpenAI-family models), and falls back to EstimateTokens.
func CountTokens(modelID, text string) int {
	if text == "" {
		return 0
	}
	if enc := encoderFor(modelID); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

func encoderFor(modelID string) *tiktoken.Tiktoken {
	if !usesTiktoken(modelID) {
		return nil
	}
	if v, ok := encoders.Load(modelID); ok {
		enc, _ := v.(*tiktoken.Tiktoken)
		return enc
	}
	enc, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			enc = nil
		}
	}
	encoders.Store(modelID, enc)
	return enc
}

func usesTiktoken(modelID string) bool {
	p, ok := InferProviderFromModel(modelID)
	return ok && (p == ProviderOpenAI || p == ProviderDeepSeek) && !strings.Contains(modelID, ":")
}
