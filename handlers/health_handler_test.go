package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services/budget"
	"github.com/insightpulse/llm-router/services/providers"
	"github.com/insightpulse/llm-router/services/routing"
)

type nullAdapter struct {
	id string
}

func (a *nullAdapter) ID() string                 { return a.id }
func (a *nullAdapter) Config() providers.Provider { return providers.Provider{ID: a.id} }
func (a *nullAdapter) Invoke(_ context.Context, _ providers.InvokeRequest) (*providers.InvokeResult, error) {
	return nil, errors.New("not used")
}

func healthHandler(t *testing.T, ledger budget.Ledger) *HealthHandler {
	t.Helper()
	registry := providers.NewRegistry()
	for _, id := range []string{"openai", "anthropic", "deepseek", "local"} {
		require.NoError(t, registry.Register(&nullAdapter{id: id}))
	}
	routes := routing.NewRegistry(routing.DefaultRoutes(), routing.DefaultChain(), zap.NewNop())
	return NewHealthHandler(ledger, registry, routes, zap.NewNop())
}

func TestHandleRoot(t *testing.T) {
	h := healthHandler(t, testLedger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.HandleRoot(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp IdentityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ServiceName, resp.Service)
	assert.Equal(t, ServiceVersion, resp.Version)
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleHealth_Healthy(t *testing.T) {
	h := healthHandler(t, testLedger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 200.0, resp.Budget.LimitUSD)
	assert.ElementsMatch(t, []string{"openai", "anthropic", "deepseek", "local"}, resp.Providers)
	assert.Contains(t, resp.Tasks, "ocr_extract")
	assert.Contains(t, resp.Tasks, "finance_analysis")
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandleHealth_BudgetExhausted(t *testing.T) {
	ledger := testLedger()
	require.NoError(t, ledger.Increment(context.Background(), "", 200.02))
	h := healthHandler(t, ledger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code, "health endpoint stays 200 even when the budget is gone")
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "budget_exhausted", resp.Status)
	assert.LessOrEqual(t, resp.Budget.RemainingUSD, 0.0)
}
