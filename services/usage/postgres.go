package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists usage entries in a usage_log table.
//
// Schema:
//
//	CREATE TABLE usage_log (
//	    id             UUID PRIMARY KEY,
//	    tenant_id      TEXT NOT NULL DEFAULT '',
//	    task           TEXT NOT NULL,
//	    provider       TEXT NOT NULL,
//	    model          TEXT NOT NULL,
//	    tokens_used    INTEGER NOT NULL,
//	    cost_usd       DOUBLE PRECISION NOT NULL,
//	    latency_ms     BIGINT NOT NULL,
//	    fallback_count INTEGER NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, entry Entry) error {
	entry = NewEntry(entry)

	query := `
		INSERT INTO usage_log (id, tenant_id, task, provider, model, tokens_used, cost_usd, latency_ms, fallback_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.Task, entry.Provider, entry.Model,
		entry.TokensUsed, entry.CostUSD, entry.LatencyMs, entry.FallbackCount, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	query := `
		SELECT id, tenant_id, task, provider, model, tokens_used, cost_usd, latency_ms, fallback_count, created_at
		FROM usage_log
		WHERE ($1 = '' OR tenant_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.TenantID, &e.Task, &e.Provider, &e.Model,
			&e.TokensUsed, &e.CostUSD, &e.LatencyMs, &e.FallbackCount, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan usage entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) TenantTotal(ctx context.Context, tenantID string, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(cost_usd), 0)
		FROM usage_log
		WHERE ($1 = '' OR tenant_id = $1) AND created_at >= $2
	`
	var total float64
	if err := s.db.QueryRowContext(ctx, query, tenantID, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum usage cost: %w", err)
	}
	return total, nil
}
