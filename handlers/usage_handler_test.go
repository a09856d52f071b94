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

	"github.com/insightpulse/llm-router/services/usage"
)

func seededStore(t *testing.T) *usage.MemoryStore {
	t.Helper()
	store := usage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, usage.Entry{TenantID: "acme", Task: "chat", Provider: "openai", CostUSD: 0.01}))
	require.NoError(t, store.Record(ctx, usage.Entry{TenantID: "globex", Task: "code_review", Provider: "anthropic", CostUSD: 0.3}))
	require.NoError(t, store.Record(ctx, usage.Entry{TenantID: "acme", Task: "qa_rag", Provider: "openai", CostUSD: 0.02}))
	return store
}

func getUsage(t *testing.T, h *UsageHandler, target string) (*httptest.ResponseRecorder, UsageResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.HandleUsage(w, req)

	var resp UsageResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandleUsage_All(t *testing.T) {
	h := NewUsageHandler(seededStore(t), zap.NewNop())

	w, resp := getUsage(t, h, "/v1/usage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "qa_rag", resp.Entries[0].Task, "newest first")
}

func TestHandleUsage_FilterByTenant(t *testing.T) {
	h := NewUsageHandler(seededStore(t), zap.NewNop())

	w, resp := getUsage(t, h, "/v1/usage?tenant_id=acme")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Count)
	for _, e := range resp.Entries {
		assert.Equal(t, "acme", e.TenantID)
	}
}

func TestHandleUsage_Limit(t *testing.T) {
	h := NewUsageHandler(seededStore(t), zap.NewNop())

	w, resp := getUsage(t, h, "/v1/usage?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)
}

func TestHandleUsage_BadLimit(t *testing.T) {
	h := NewUsageHandler(seededStore(t), zap.NewNop())

	w, _ := getUsage(t, h, "/v1/usage?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = getUsage(t, h, "/v1/usage?limit=-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUsage_EmptyStoreReturnsEmptyArray(t *testing.T) {
	h := NewUsageHandler(usage.NewMemoryStore(), zap.NewNop())

	w, resp := getUsage(t, h, "/v1/usage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Entries)
	assert.Contains(t, w.Body.String(), `"entries":[]`)
}
