package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services/budget"
	"github.com/insightpulse/llm-router/services/providers"
	"github.com/insightpulse/llm-router/services/routing"
	"github.com/insightpulse/llm-router/utils"
)

// ServiceName identifies this service in the root and health endpoints.
const ServiceName = "llm-router"

// ServiceVersion is stamped into identity responses.
const ServiceVersion = "0.1.0"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string        `json:"status"`
	Budget    budget.Status `json:"budget"`
	Providers []string      `json:"providers"`
	Tasks     []string      `json:"tasks"`
	Timestamp string        `json:"timestamp"`
}

// IdentityResponse is the root endpoint body.
type IdentityResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// HealthHandler handles health and identity requests
type HealthHandler struct {
	ledger    budget.Ledger
	providers *providers.Registry
	routes    *routing.Registry
	logger    *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(ledger budget.Ledger, registry *providers.Registry, routes *routing.Registry, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		ledger:    ledger,
		providers: registry,
		routes:    routes,
		logger:    logger,
	}
}

// HandleRoot handles GET /
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, IdentityResponse{
		Service: ServiceName,
		Version: ServiceVersion,
		Status:  "ok",
	})
}

// HandleHealth handles GET /health
// Always returns 200; status flips to "budget_exhausted" when the global
// budget has no remaining headroom.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	budgetStatus, err := h.ledger.Check(r.Context(), "")
	if err != nil {
		h.logger.Warn("budget check failed during health check", zap.Error(err))
		status = "degraded"
	} else if budgetStatus.RemainingUSD <= 0 {
		status = "budget_exhausted"
	}

	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Budget:    budgetStatus,
		Providers: h.providers.IDs(),
		Tasks:     h.routes.Tasks(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
