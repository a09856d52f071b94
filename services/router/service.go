// Package router orchestrates the request pipeline: budget admission, chain
// resolution, provider fallback execution, cost accounting.
package router

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services"
	"github.com/insightpulse/llm-router/services/budget"
	"github.com/insightpulse/llm-router/services/executor"
	"github.com/insightpulse/llm-router/services/pricing"
	"github.com/insightpulse/llm-router/services/providers"
	"github.com/insightpulse/llm-router/services/routing"
	"github.com/insightpulse/llm-router/services/usage"
)

// ChainExecutor walks a provider chain. Satisfied by *executor.FallbackExecutor.
type ChainExecutor interface {
	Execute(ctx context.Context, chain []string, req providers.InvokeRequest) (*executor.Outcome, error)
}

// Service runs each request through admission, routing, execution and
// accounting. Budget is checked before any provider call and charged exactly
// once after a successful one.
type Service struct {
	ledger    budget.Ledger
	routes    *routing.Registry
	executor  ChainExecutor
	providers *providers.Registry
	usage     usage.Store
	logger    *zap.Logger
	tracer    trace.Tracer
}

func NewService(
	ledger budget.Ledger,
	routes *routing.Registry,
	exec ChainExecutor,
	registry *providers.Registry,
	usageStore usage.Store,
	logger *zap.Logger,
) *Service {
	return &Service{
		ledger:    ledger,
		routes:    routes,
		executor:  exec,
		providers: registry,
		usage:     usageStore,
		logger:    logger,
		tracer:    otel.Tracer("llm-router/services/router"),
	}
}

// Route processes one generation request through the full pipeline.
func (s *Service) Route(ctx context.Context, req *RouteRequest) (*RouteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "router.Route")
	defer span.End()

	req.Normalize()
	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("request.task", req.Task),
		attribute.String("request.tenant_id", req.TenantID),
	)

	s.logger.Info("routing request",
		zap.String("request_id", requestID),
		zap.String("task", req.Task),
		zap.String("tenant_id", req.TenantID))

	// Step 1: budget admission. Point-in-time check, no reservation.
	admitted, err := s.ledger.Admit(ctx, req.TenantID)
	if err != nil {
		return nil, services.WrapInternal("budget admission check failed", err)
	}
	if !admitted {
		s.logger.Warn("request rejected by budget admission",
			zap.String("request_id", requestID),
			zap.String("tenant_id", req.TenantID))
		return nil, services.NewDomainError(services.ErrorTypeBudget, "budget exceeded", nil).
			WithDetail("tenant_id", req.TenantID)
	}

	// Step 2: resolve the fallback chain for the task.
	chain := s.routes.ChainFor(req.Task)
	span.SetAttributes(attribute.StringSlice("request.chain", chain))

	// Step 3: walk the chain.
	outcome, err := s.executor.Execute(ctx, chain, providers.InvokeRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.logger.Error("all providers failed",
			zap.String("request_id", requestID),
			zap.String("task", req.Task),
			zap.Strings("chain", chain),
			zap.Error(err))
		return nil, services.NewDomainError(services.ErrorTypeExternal, "all providers in chain failed", err).
			WithDetail("task", req.Task).
			WithDetail("chain", chain)
	}

	// Step 4: price the completed work from the answering provider's rate.
	costUSD, model := s.price(outcome)

	// Step 5: charge exactly once. The work is already done, so charging
	// proceeds even if the client has gone away.
	chargeCtx := context.WithoutCancel(ctx)
	if err := s.ledger.Increment(chargeCtx, req.TenantID, costUSD); err != nil {
		s.logger.Error("failed to charge completed request",
			zap.String("request_id", requestID),
			zap.String("tenant_id", req.TenantID),
			zap.Float64("cost_usd", costUSD),
			zap.Error(err))
	}

	s.recordUsage(chargeCtx, requestID, req, outcome, model, costUSD)

	s.logger.Info("request completed",
		zap.String("request_id", requestID),
		zap.String("provider", outcome.ProviderID),
		zap.Int("tokens_used", outcome.Result.TokensUsed),
		zap.Float64("cost_usd", costUSD),
		zap.Int("fallback_count", outcome.FallbackCount))

	return &RouteResponse{
		Provider:      outcome.ProviderID,
		Model:         model,
		Output:        outcome.Result.Output,
		TokensUsed:    outcome.Result.TokensUsed,
		CostUSD:       costUSD,
		LatencyMs:     outcome.Result.LatencyMs,
		FallbackCount: outcome.FallbackCount,
		Cached:        false,
		Timestamp:     time.Now().UTC(),
	}, nil
}

func (s *Service) price(outcome *executor.Outcome) (float64, string) {
	adapter, err := s.providers.Get(outcome.ProviderID)
	if err != nil {
		// The executor just resolved this ID, so the registry must know it.
		s.logger.Error("pricing lookup failed", zap.String("provider", outcome.ProviderID), zap.Error(err))
		return 0, ""
	}
	cfg := adapter.Config()
	return pricing.Cost(cfg.CostPer1KTokens, outcome.Result.TokensUsed), cfg.Model
}

// recordUsage writes the per-call usage entry. Failures are logged and
// swallowed, the cost is already in the ledger.
func (s *Service) recordUsage(ctx context.Context, requestID string, req *RouteRequest, outcome *executor.Outcome, model string, costUSD float64) {
	if s.usage == nil {
		return
	}

	entry := usage.Entry{
		ID:            requestID,
		TenantID:      req.TenantID,
		Task:          req.Task,
		Provider:      outcome.ProviderID,
		Model:         model,
		TokensUsed:    outcome.Result.TokensUsed,
		CostUSD:       costUSD,
		LatencyMs:     outcome.Result.LatencyMs,
		FallbackCount: outcome.FallbackCount,
	}
	go func() {
		recordCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.usage.Record(recordCtx, entry); err != nil {
			s.logger.Warn("failed to record usage entry",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}()
}
