// Package openaicompat implements the provider adapter for backends that
// speak the OpenAI chat completions wire format: OpenAI itself, DeepSeek, and
// a local Ollama server via its OpenAI-compatible endpoint.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/insightpulse/llm-router/services/pricing"
	"github.com/insightpulse/llm-router/services/providers"
)

// Adapter calls one OpenAI-compatible backend.
type Adapter struct {
	config     providers.Provider
	apiKey     string
	httpClient *http.Client
}

// New creates an adapter for the given provider record. apiKey may be empty
// for backends that do not authenticate (local inference).
func New(config providers.Provider, apiKey string) *Adapter {
	if config.Timeout == 0 {
		config.Timeout = providers.DefaultTimeout
	}
	return &Adapter{
		config: config,
		apiKey: apiKey,
		// per-call deadlines come from the context in Invoke
		httpClient: &http.Client{},
	}
}

func (a *Adapter) ID() string {
	return a.config.ID
}

func (a *Adapter) Config() providers.Provider {
	return a.config
}

// Invoke performs one chat completion call, bounded by the provider's
// configured timeout.
func (a *Adapter) Invoke(ctx context.Context, req providers.InvokeRequest) (*providers.InvokeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       a.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, providers.NewProviderError(a.config.ID,
			fmt.Errorf("status %d: %s", httpResp.StatusCode, truncate(respBody, 200)))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("unmarshal response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("empty choices in response"))
	}

	output := resp.Choices[0].Message.Content
	result := &providers.InvokeResult{
		Output:     output,
		TokensUsed: resp.Usage.TotalTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	if result.TokensUsed == 0 {
		// backend reported no usage block; estimate rather than charge zero
		result.TokensUsed = pricing.EstimateTokens(req.Prompt) + pricing.EstimateTokens(output)
		result.TokensEstimated = true
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
