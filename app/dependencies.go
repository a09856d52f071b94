package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/config"
	"github.com/insightpulse/llm-router/handlers"
	"github.com/insightpulse/llm-router/middleware"
	"github.com/insightpulse/llm-router/services/budget"
	"github.com/insightpulse/llm-router/services/executor"
	"github.com/insightpulse/llm-router/services/providers"
	"github.com/insightpulse/llm-router/services/providers/anthropic"
	"github.com/insightpulse/llm-router/services/providers/openaicompat"
	"github.com/insightpulse/llm-router/services/router"
	"github.com/insightpulse/llm-router/services/routing"
	"github.com/insightpulse/llm-router/services/usage"

	_ "github.com/lib/pq"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB
	Redis  *redis.Client

	// Core services
	Ledger        budget.Ledger
	Providers     *providers.Registry
	Routes        *routing.Registry
	Executor      *executor.FallbackExecutor
	RouterService *router.Service
	UsageStore    usage.Store

	// HTTP surface
	RouteHandler    *handlers.RouteHandler
	BudgetHandler   *handlers.BudgetHandler
	UsageHandler    *handlers.UsageHandler
	HealthHandler   *handlers.HealthHandler
	AdminMiddleware *middleware.AdminMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initLedger(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize budget ledger: %w", err)
	}

	deps.initProviders(cfg)

	if err := deps.initRoutes(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize task routes: %w", err)
	}

	deps.initRouter()
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close releases held connections.
func (d *Dependencies) Close() error {
	var firstErr error
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// initLedger selects and initializes the budget ledger backend. The usage
// store follows the ledger: postgres deployments get a durable usage log,
// everything else keeps it in memory.
func (d *Dependencies) initLedger(ctx context.Context, cfg *config.Config) error {
	limits := budget.Limits{
		GlobalUSD:        cfg.Budget.GlobalUSD,
		DefaultTenantUSD: cfg.Budget.DefaultTenantUSD,
		TenantUSD:        cfg.Budget.TenantUSD,
	}

	switch cfg.Ledger.Backend {
	case config.LedgerMemory:
		d.Ledger = budget.NewMemoryLedger(limits)
		d.UsageStore = usage.NewMemoryStore()

	case config.LedgerRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		d.Redis = client
		d.Ledger = budget.NewRedisLedger(client, limits)
		d.UsageStore = usage.NewMemoryStore()
		d.Logger.Info("redis ledger initialized", zap.String("addr", cfg.Redis.Addr))

	case config.LedgerPostgres:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		d.DB = db
		d.Ledger = budget.NewPostgresLedger(db, limits)
		d.UsageStore = usage.NewPostgresStore(db)
		d.Logger.Info("postgres ledger initialized",
			zap.String("connection", cfg.Database.LogString()))

	default:
		return fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	d.Logger.Info("budget limits loaded",
		zap.Float64("global_usd", limits.GlobalUSD),
		zap.Float64("default_tenant_usd", limits.DefaultTenantUSD),
		zap.Int("tenant_overrides", len(limits.TenantUSD)))
	return nil
}

// initProviders builds the provider registry from the built-in catalog and
// the configured credentials. Providers without keys still register; their
// calls fail at invoke time and the chain falls through, which keeps the
// local provider usable with zero config.
func (d *Dependencies) initProviders(cfg *config.Config) {
	registry := providers.NewRegistry()

	for _, p := range providers.DefaultCatalog() {
		pc, ok := providerConfig(cfg, p.ID)
		if ok {
			if pc.BaseURL != "" {
				p.Endpoint = pc.BaseURL
			}
			if pc.Timeout > 0 {
				p.Timeout = pc.Timeout
			}
		}

		var adapter providers.Adapter
		switch p.ID {
		case "anthropic":
			adapter = anthropic.New(p, pc.APIKey)
		default:
			adapter = openaicompat.New(p, pc.APIKey)
		}

		if err := registry.Register(adapter); err != nil {
			d.Logger.Error("failed to register provider", zap.String("provider", p.ID), zap.Error(err))
			continue
		}
		d.Logger.Info("registered provider",
			zap.String("provider", p.ID),
			zap.String("model", p.Model),
			zap.Bool("has_key", pc.APIKey != ""))
	}

	d.Providers = registry
}

func providerConfig(cfg *config.Config, providerID string) (config.ProviderConfig, bool) {
	switch providerID {
	case "openai":
		return cfg.Providers.OpenAI, true
	case "anthropic":
		return cfg.Providers.Anthropic, true
	case "deepseek":
		return cfg.Providers.DeepSeek, true
	case "local":
		return cfg.Providers.Local, true
	}
	return config.ProviderConfig{}, false
}

// initRoutes loads the task route table, either built-in or from the
// configured TOML file.
func (d *Dependencies) initRoutes(cfg *config.Config) error {
	routes := routing.DefaultRoutes()
	defaultChain := routing.DefaultChain()

	if cfg.Routes.File != "" {
		rf, err := config.LoadRoutesFile(cfg.Routes.File)
		if err != nil {
			return err
		}
		if len(rf.Routes) > 0 {
			routes = rf.Routes
		}
		if len(rf.DefaultChain) > 0 {
			defaultChain = rf.DefaultChain
		}
		d.Logger.Info("task routes loaded from file",
			zap.String("file", cfg.Routes.File),
			zap.Int("tasks", len(routes)))
	}

	d.Routes = routing.NewRegistry(routes, defaultChain, d.Logger)
	return nil
}

func (d *Dependencies) initRouter() {
	d.Executor = executor.NewFallbackExecutor(d.Providers, d.Logger)
	d.RouterService = router.NewService(d.Ledger, d.Routes, d.Executor, d.Providers, d.UsageStore, d.Logger)
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.RouteHandler = handlers.NewRouteHandler(d.RouterService, d.Logger)
	d.BudgetHandler = handlers.NewBudgetHandler(d.Ledger, d.Logger)
	d.UsageHandler = handlers.NewUsageHandler(d.UsageStore, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Ledger, d.Providers, d.Routes, d.Logger)
	d.AdminMiddleware = middleware.NewAdminMiddleware(cfg.Admin.JWTSecret, d.Logger)

	if !d.AdminMiddleware.Enabled() {
		d.Logger.Warn("admin auth disabled, reset endpoint is open")
	}
}
