// Package anthropic implements the provider adapter for the Anthropic
// Messages API.
package anthropic

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

const apiVersion = "2023-06-01"

// Adapter calls the Anthropic Messages API.
type Adapter struct {
	config     providers.Provider
	apiKey     string
	httpClient *http.Client
}

// New creates an adapter for the given provider record.
func New(config providers.Provider, apiKey string) *Adapter {
	if config.Timeout == 0 {
		config.Timeout = providers.DefaultTimeout
	}
	return &Adapter{
		config:     config,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

func (a *Adapter) ID() string {
	return a.config.ID
}

func (a *Adapter) Config() providers.Provider {
	return a.config
}

// Invoke performs one messages call, bounded by the provider's configured
// timeout.
func (a *Adapter) Invoke(ctx context.Context, req providers.InvokeRequest) (*providers.InvokeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	body, err := json.Marshal(messagesRequest{
		Model:       a.config.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("unmarshal response: %w", err))
	}
	if len(resp.Content) == 0 {
		return nil, providers.NewProviderError(a.config.ID, fmt.Errorf("empty content in response"))
	}

	output := resp.Content[0].Text
	result := &providers.InvokeResult{
		Output:     output,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
		LatencyMs:  time.Since(start).Milliseconds(),
	}
	if result.TokensUsed == 0 {
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

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
