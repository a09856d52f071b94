package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/services/budget"
)

func testLedger() *budget.MemoryLedger {
	return budget.NewMemoryLedger(budget.Limits{
		GlobalUSD:        200,
		DefaultTenantUSD: 50,
		TenantUSD:        map[string]float64{"finance": 120},
	})
}

func TestHandleStatus_Global(t *testing.T) {
	ledger := testLedger()
	require.NoError(t, ledger.Increment(context.Background(), "", 12.5))
	h := NewBudgetHandler(ledger, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/budget", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var status budget.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 12.5, status.MonthSpendUSD)
	assert.Equal(t, 200.0, status.LimitUSD)
	assert.Equal(t, 187.5, status.RemainingUSD)
	assert.Empty(t, status.TenantID)
}

func TestHandleStatus_TenantOverride(t *testing.T) {
	h := NewBudgetHandler(testLedger(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/budget?tenant_id=finance", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var status budget.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 120.0, status.LimitUSD)
	assert.Equal(t, "finance", status.TenantID)
	assert.Equal(t, 0.0, status.MonthSpendUSD)
}

func TestHandleReset_Tenant(t *testing.T) {
	ledger := testLedger()
	ctx := context.Background()
	require.NoError(t, ledger.Increment(ctx, "acme", 10))
	h := NewBudgetHandler(ledger, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/reset-budget?tenant_id=acme", nil)
	w := httptest.NewRecorder()
	h.HandleReset(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ResetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reset", resp.Status)
	assert.Equal(t, "acme", resp.TenantID)

	status, err := ledger.Check(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 0.0, status.MonthSpendUSD)

	// The global counter keeps the spend.
	global, err := ledger.Check(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10.0, global.MonthSpendUSD)
}

func TestHandleReset_Global(t *testing.T) {
	ledger := testLedger()
	ctx := context.Background()
	require.NoError(t, ledger.Increment(ctx, "", 42))
	h := NewBudgetHandler(ledger, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/reset-budget", nil)
	w := httptest.NewRecorder()
	h.HandleReset(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	global, err := ledger.Check(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, global.MonthSpendUSD)
}
