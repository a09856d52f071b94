package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/middleware"
	"github.com/insightpulse/llm-router/services"
	"github.com/insightpulse/llm-router/services/budget"
	"github.com/insightpulse/llm-router/utils"
)

// BudgetHandler exposes budget status and the reset endpoint
type BudgetHandler struct {
	ledger budget.Ledger
	logger *zap.Logger
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(ledger budget.Ledger, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		ledger: ledger,
		logger: logger,
	}
}

// HandleStatus handles GET /v1/budget
// An empty tenant_id reports the global budget.
func (h *BudgetHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")

	status, err := h.ledger.Check(r.Context(), tenantID)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("budget check failed", err), h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, status)
}

// ResetResponse is the body returned by the reset endpoint.
type ResetResponse struct {
	Status   string `json:"status"`
	TenantID string `json:"tenant_id,omitempty"`
}

// HandleReset handles POST /v1/reset-budget
// Resets the current month's counter for the tenant, or the global counter
// when tenant_id is empty.
func (h *BudgetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.URL.Query().Get("tenant_id")

	if err := h.ledger.Reset(ctx, tenantID); err != nil {
		HandleServiceError(w, services.WrapInternal("budget reset failed", err), h.logger)
		return
	}

	h.logger.Info("budget counter reset",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("tenant_id", tenantID),
		zap.String("admin", middleware.GetAdminSubjectFromContext(ctx)))

	_ = utils.WriteJSON(w, http.StatusOK, ResetResponse{
		Status:   "reset",
		TenantID: tenantID,
	})
}
