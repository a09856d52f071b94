package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/middleware"
	"github.com/insightpulse/llm-router/services/router"
	"github.com/insightpulse/llm-router/utils"
)

// RouteService defines the interface for request routing
type RouteService interface {
	Route(ctx context.Context, req *router.RouteRequest) (*router.RouteResponse, error)
}

// RouteHandler handles generation requests
type RouteHandler struct {
	service RouteService
	logger  *zap.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(service RouteService, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRoute handles POST /v1/route
func (h *RouteHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req router.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.service.Route(ctx, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, resp)
}
