// Package usage records one row per completed generation, for reporting
// separate from the budget counters. Recording is best effort and must never
// fail a request that already succeeded.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one completed generation.
type Entry struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id,omitempty"`
	Task          string    `json:"task"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	TokensUsed    int       `json:"tokens_used"`
	CostUSD       float64   `json:"cost_usd"`
	LatencyMs     int64     `json:"latency_ms"`
	FallbackCount int       `json:"fallback_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists usage entries.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, tenantID string, limit int) ([]Entry, error)
	TenantTotal(ctx context.Context, tenantID string, since time.Time) (float64, error)
}

// NewEntry stamps an entry with an ID and timestamp if the caller left them
// empty.
func NewEntry(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return entry
}
