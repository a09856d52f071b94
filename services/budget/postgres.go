package budget

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresLedger keeps spend counters in a budget_tracking table, one row per
// (scope, month). The upsert increments inside the database, so concurrent
// increments from any number of instances never lose updates.
//
// Schema:
//
//	CREATE TABLE budget_tracking (
//	    scope_key  TEXT NOT NULL,
//	    period_key TEXT NOT NULL,
//	    total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (scope_key, period_key)
//	);
type PostgresLedger struct {
	db     *sql.DB
	limits Limits
	now    func() time.Time
}

const globalScope = "global"

// NewPostgresLedger creates a ledger backed by the given database.
func NewPostgresLedger(db *sql.DB, limits Limits) *PostgresLedger {
	return &PostgresLedger{db: db, limits: limits, now: time.Now}
}

// WithClock overrides the ledger's clock. Test hook.
func (l *PostgresLedger) WithClock(now func() time.Time) *PostgresLedger {
	l.now = now
	return l
}

func (l *PostgresLedger) Check(ctx context.Context, tenantID string) (Status, error) {
	period := periodKey(l.now())
	scope, limit := l.scopeAndLimit(tenantID)

	spend, err := l.readSpend(ctx, scope, period)
	if err != nil {
		return Status{}, err
	}
	return statusFor(tenantID, spend, limit), nil
}

func (l *PostgresLedger) Admit(ctx context.Context, tenantID string) (bool, error) {
	period := periodKey(l.now())

	globalSpend, err := l.readSpend(ctx, globalScope, period)
	if err != nil {
		return false, err
	}
	if l.limits.GlobalUSD-globalSpend <= 0 {
		return false, nil
	}

	if tenantID != "" {
		tenantSpend, err := l.readSpend(ctx, tenantScope(tenantID), period)
		if err != nil {
			return false, err
		}
		if l.limits.TenantLimit(tenantID)-tenantSpend <= 0 {
			return false, nil
		}
	}
	return true, nil
}

func (l *PostgresLedger) Increment(ctx context.Context, tenantID string, costUSD float64) error {
	period := periodKey(l.now())

	if err := l.upsert(ctx, globalScope, period, costUSD); err != nil {
		return err
	}
	if tenantID != "" {
		if err := l.upsert(ctx, tenantScope(tenantID), period, costUSD); err != nil {
			return err
		}
	}
	return nil
}

func (l *PostgresLedger) Reset(ctx context.Context, tenantID string) error {
	period := periodKey(l.now())
	scope := globalScope
	if tenantID != "" {
		scope = tenantScope(tenantID)
	}

	query := `
		UPDATE budget_tracking
		SET total_cost = 0, updated_at = $3
		WHERE scope_key = $1 AND period_key = $2
	`
	if _, err := l.db.ExecContext(ctx, query, scope, period, l.now()); err != nil {
		return fmt.Errorf("reset budget counter: %w", err)
	}
	return nil
}

func (l *PostgresLedger) readSpend(ctx context.Context, scope, period string) (float64, error) {
	query := `
		SELECT COALESCE(total_cost, 0)
		FROM budget_tracking
		WHERE scope_key = $1 AND period_key = $2
	`

	var spend float64
	err := l.db.QueryRowContext(ctx, query, scope, period).Scan(&spend)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query budget counter: %w", err)
	}
	return spend, nil
}

func (l *PostgresLedger) upsert(ctx context.Context, scope, period string, costUSD float64) error {
	query := `
		INSERT INTO budget_tracking (scope_key, period_key, total_cost, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_key, period_key)
		DO UPDATE SET
			total_cost = budget_tracking.total_cost + EXCLUDED.total_cost,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := l.db.ExecContext(ctx, query, scope, period, costUSD, l.now()); err != nil {
		return fmt.Errorf("upsert budget counter: %w", err)
	}
	return nil
}

func (l *PostgresLedger) scopeAndLimit(tenantID string) (string, float64) {
	if tenantID == "" {
		return globalScope, l.limits.GlobalUSD
	}
	return tenantScope(tenantID), l.limits.TenantLimit(tenantID)
}

func tenantScope(tenantID string) string {
	return fmt.Sprintf("tenant:%s", tenantID)
}
