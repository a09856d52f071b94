package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services"
	"github.com/insightpulse/llm-router/services/usage"
	"github.com/insightpulse/llm-router/utils"
)

const (
	defaultUsageLimit = 50
	maxUsageLimit     = 500
)

// UsageHandler exposes the per-call usage log
type UsageHandler struct {
	store  usage.Store
	logger *zap.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(store usage.Store, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		store:  store,
		logger: logger,
	}
}

// UsageResponse is the body returned by the usage endpoint.
type UsageResponse struct {
	Entries []usage.Entry `json:"entries"`
	Count   int           `json:"count"`
}

// HandleUsage handles GET /v1/usage
func (h *UsageHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")

	limit := defaultUsageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = utils.WriteBadRequest(w, "limit must be a positive integer", nil)
			return
		}
		if n > maxUsageLimit {
			n = maxUsageLimit
		}
		limit = n
	}

	entries, err := h.store.Recent(r.Context(), tenantID, limit)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("usage query failed", err), h.logger)
		return
	}
	if entries == nil {
		entries = []usage.Entry{}
	}

	_ = utils.WriteJSON(w, http.StatusOK, UsageResponse{
		Entries: entries,
		Count:   len(entries),
	})
}
