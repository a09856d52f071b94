// Package executor walks a provider fallback chain, invoking each provider
// in order until one succeeds or the chain is exhausted. Attempts are strictly
// sequential. A per-provider circuit breaker skips providers that have been
// failing consistently, which counts as a failed attempt for that provider.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services/providers"
)

// ErrBreakerOpen is the attempt error recorded when a provider's circuit
// breaker refuses the call without invoking the provider.
var ErrBreakerOpen = errors.New("circuit breaker open")

// Attempt records one failed call within a chain walk.
type Attempt struct {
	ProviderID string
	Err        error
}

// Outcome reports a successful chain walk. FallbackCount is the number of
// providers that failed before the one that produced Result.
type Outcome struct {
	ProviderID    string
	Result        *providers.InvokeResult
	FallbackCount int
	Attempts      []Attempt
}

// ExhaustedError is returned when every provider in the chain failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	ids := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		ids = append(ids, a.ProviderID)
	}
	return fmt.Sprintf("all providers failed: [%s]", strings.Join(ids, ", "))
}

// FallbackExecutor resolves provider IDs against a registry and walks chains.
// Breakers are created lazily, one per provider ID, and shared across calls.
type FallbackExecutor struct {
	registry *providers.Registry
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewFallbackExecutor(registry *providers.Registry, logger *zap.Logger) *FallbackExecutor {
	return &FallbackExecutor{
		registry: registry,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Execute tries each provider in chain order and returns the first success.
// A provider that is missing from the registry, refused by its breaker, or
// that returns an error counts as one failed attempt and the walk moves on.
// When the chain is exhausted the error is an *ExhaustedError.
func (e *FallbackExecutor) Execute(ctx context.Context, chain []string, req providers.InvokeRequest) (*Outcome, error) {
	if len(chain) == 0 {
		return nil, &ExhaustedError{}
	}

	attempts := make([]Attempt, 0, len(chain))
	for _, providerID := range chain {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{ProviderID: providerID, Err: err})
			return nil, &ExhaustedError{Attempts: attempts}
		}

		result, err := e.attempt(ctx, providerID, req)
		if err != nil {
			e.logger.Warn("provider attempt failed",
				zap.String("provider", providerID),
				zap.Error(err))
			attempts = append(attempts, Attempt{ProviderID: providerID, Err: err})
			continue
		}

		e.logger.Info("provider attempt succeeded",
			zap.String("provider", providerID),
			zap.Int("fallback_count", len(attempts)),
			zap.Int64("latency_ms", result.LatencyMs))
		return &Outcome{
			ProviderID:    providerID,
			Result:        result,
			FallbackCount: len(attempts),
			Attempts:      attempts,
		}, nil
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

func (e *FallbackExecutor) attempt(ctx context.Context, providerID string, req providers.InvokeRequest) (*providers.InvokeResult, error) {
	adapter, err := e.registry.Get(providerID)
	if err != nil {
		return nil, err
	}

	cb := e.breaker(providerID)
	if cb.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, providerID)
	}

	out, err := cb.Execute(func() (interface{}, error) {
		return adapter.Invoke(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*providers.InvokeResult), nil
}

func (e *FallbackExecutor) breaker(providerID string) *gobreaker.CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[providerID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        providerID,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	e.breakers[providerID] = cb
	return cb
}
