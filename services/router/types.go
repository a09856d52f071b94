package router

import "time"

const (
	defaultMaxTokens   = 800
	defaultTemperature = 0.7
)

// RouteRequest is one generation request.
type RouteRequest struct {
	Task        string                 `json:"task" validate:"required"`
	Prompt      string                 `json:"prompt" validate:"required"`
	MaxTokens   int                    `json:"max_tokens" validate:"omitempty,gt=0"`
	Temperature float64                `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	TenantID    string                 `json:"tenant_id,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Normalize fills in defaults for optional fields.
func (r *RouteRequest) Normalize() {
	if r.MaxTokens <= 0 {
		r.MaxTokens = defaultMaxTokens
	}
	if r.Temperature == 0 {
		r.Temperature = defaultTemperature
	}
}

// RouteResponse reports a completed generation. FallbackCount is the number
// of providers that failed before the one that answered.
type RouteResponse struct {
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Output        string    `json:"output"`
	TokensUsed    int       `json:"tokens_used"`
	CostUSD       float64   `json:"cost_usd"`
	LatencyMs     int64     `json:"latency_ms"`
	FallbackCount int       `json:"fallback_count"`
	Cached        bool      `json:"cached"`
	Timestamp     time.Time `json:"timestamp"`
}
