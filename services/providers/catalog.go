package providers

import "time"

// DefaultTimeout bounds a single backend call when a provider record does not
// override it.
const DefaultTimeout = 30 * time.Second

// DefaultCatalog returns the built-in provider records. Pricing is USD per
// 1000 tokens; MaxTPM is the backend's advertised rate limit.
func DefaultCatalog() []Provider {
	return []Provider{
		{
			ID:              "openai",
			Model:           "gpt-4o-mini",
			MaxTPM:          200_000,
			CostPer1KTokens: 0.00015,
			Endpoint:        "https://api.openai.com/v1",
			Timeout:         DefaultTimeout,
		},
		{
			ID:              "anthropic",
			Model:           "claude-3-5-sonnet-20241022",
			MaxTPM:          150_000,
			CostPer1KTokens: 0.003,
			Endpoint:        "https://api.anthropic.com/v1",
			Timeout:         DefaultTimeout,
		},
		{
			ID:              "deepseek",
			Model:           "deepseek-chat",
			MaxTPM:          150_000,
			CostPer1KTokens: 0.00014,
			Endpoint:        "https://api.deepseek.com/v1",
			Timeout:         DefaultTimeout,
		},
		{
			ID:              "local",
			Model:           "llama3.1:8b",
			MaxTPM:          80_000,
			CostPer1KTokens: 0.0, // local inference is free
			Endpoint:        "http://ollama:11434/v1",
			Timeout:         DefaultTimeout,
		},
	}
}
