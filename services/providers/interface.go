package providers

import (
	"context"
	"fmt"
	"time"
)

// Provider is the immutable configuration record for one backend. Loaded at
// process start and never mutated at request time.
type Provider struct {
	// ID is the stable provider identifier used in chains (e.g. "openai")
	ID string `toml:"id" json:"id"`

	// Model is the model name sent to the backend
	Model string `toml:"model" json:"model"`

	// MaxTPM is the provider's tokens-per-minute rate limit. Configuration
	// metadata only; not enforced by the router.
	MaxTPM int `toml:"max_tpm" json:"max_tpm"`

	// CostPer1KTokens is the USD price per 1000 tokens
	CostPer1KTokens float64 `toml:"cost_per_1k_tokens" json:"cost_per_1k_tokens"`

	// Endpoint is the backend base URL
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// Timeout bounds a single invocation of this backend
	Timeout time.Duration `toml:"-" json:"-"`
}

// InvokeRequest is the uniform generation request passed to an adapter.
type InvokeRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// InvokeResult is the uniform result of a successful backend call.
type InvokeResult struct {
	Output     string
	TokensUsed int
	LatencyMs  int64

	// TokensEstimated is true when the backend reported no usage block and
	// TokensUsed was approximated instead.
	TokensEstimated bool
}

// Adapter is the uniform interface to one backend. Invoke must respect ctx
// cancellation; callers bound each call with the provider's configured
// timeout.
type Adapter interface {
	// ID returns the provider identifier (e.g. "openai", "local")
	ID() string

	// Config returns the provider's immutable configuration record
	Config() Provider

	// Invoke performs one generation call against the backend
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}

// ProviderError is the single failure kind an adapter reports: non-2xx
// responses, timeouts, malformed bodies and rate-limit rejections all
// collapse into it. The executor needs no finer taxonomy to decide on
// fallback.
type ProviderError struct {
	ProviderID string
	Cause      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.ProviderID, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError wraps cause as a failure of the given provider.
func NewProviderError(providerID string, cause error) *ProviderError {
	return &ProviderError{ProviderID: providerID, Cause: cause}
}
