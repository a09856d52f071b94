package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/insightpulse/llm-router/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("LEDGER_BACKEND", "memory")
	cfg, err := config.New()
	require.NoError(t, err)
	return cfg
}

func TestNewDependencies_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)

	deps, err := NewDependencies(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, deps)

	assert.NotNil(t, deps.Config)
	assert.NotNil(t, deps.Logger)
	assert.Nil(t, deps.DB, "memory backend must not open a database")
	assert.Nil(t, deps.Redis)

	assert.NotNil(t, deps.Ledger)
	assert.NotNil(t, deps.UsageStore)
	assert.NotNil(t, deps.Routes)
	assert.NotNil(t, deps.Executor)
	assert.NotNil(t, deps.RouterService)

	assert.NotNil(t, deps.RouteHandler)
	assert.NotNil(t, deps.BudgetHandler)
	assert.NotNil(t, deps.UsageHandler)
	assert.NotNil(t, deps.HealthHandler)
	assert.NotNil(t, deps.AdminMiddleware)
	assert.False(t, deps.AdminMiddleware.Enabled())

	assert.NoError(t, deps.Close())
}

func TestNewDependencies_RegistersAllCatalogProviders(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close()

	assert.ElementsMatch(t, []string{"anthropic", "deepseek", "local", "openai"}, deps.Providers.IDs())
}

func TestNewDependencies_ProviderOverrides(t *testing.T) {
	ctx := context.Background()
	t.Setenv("OPENAI_BASE_URL", "http://mock-openai:9999/v1")
	cfg := testConfig(t)

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close()

	adapter, err := deps.Providers.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, "http://mock-openai:9999/v1", adapter.Config().Endpoint)
}

func TestNewDependencies_AdminEnabledWithSecret(t *testing.T) {
	ctx := context.Background()
	t.Setenv("ADMIN_JWT_SECRET", "secret")
	cfg := testConfig(t)

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close()

	assert.True(t, deps.AdminMiddleware.Enabled())
}

func TestNewDependencies_RedisBackendUnavailable(t *testing.T) {
	ctx := context.Background()
	t.Setenv("LEDGER_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	cfg, err := config.New()
	require.NoError(t, err)

	_, err = NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
