package pricing

import (
	"math"
	"strings"
)

// tokensPerWord is a rough whitespace-word to token ratio. It is an
// approximation, not a tokenizer: provider-exact token counts come from the
// provider's usage report, and this estimator is only the fallback when a
// provider does not report usage.
const tokensPerWord = 1.3

// EstimateTokens returns a deterministic token approximation for text.
// Empty or whitespace-only text estimates to zero.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Round(float64(words) * tokensPerWord))
}

// Cost computes the USD cost for a token count at a per-1K-token price.
// Pure arithmetic, no rounding beyond float64.
func Cost(costPer1KTokens float64, tokensUsed int) float64 {
	return float64(tokensUsed) / 1000.0 * costPer1KTokens
}
