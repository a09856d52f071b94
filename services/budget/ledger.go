// Package budget tracks monthly USD spend per tenant and globally, and makes
// the admission decision for incoming requests.
//
// Admission is a point-in-time check, not a reservation: two concurrent
// requests can both pass Admit when one "slot" of budget remains and together
// overshoot the cap. This is the documented soft-cap behavior; Increment
// itself is atomic, so no spend is ever lost.
package budget

import (
	"context"
	"time"
)

// Status is the spend snapshot returned by Check.
type Status struct {
	MonthSpendUSD  float64 `json:"month_spend_usd"`
	LimitUSD       float64 `json:"limit_usd"`
	RemainingUSD   float64 `json:"remaining_usd"`
	PercentageUsed float64 `json:"percentage_used"`
	TenantID       string  `json:"tenant_id,omitempty"`
}

// Ledger is the mutable store of cumulative monthly spend. Implementations
// must make Increment atomic with respect to concurrent increments.
type Ledger interface {
	// Check returns the current spend snapshot. With an empty tenantID it
	// reports the global budget; otherwise the tenant's budget (creating
	// the tenant entry lazily with its configured default limit).
	Check(ctx context.Context, tenantID string) (Status, error)

	// Admit reports whether a request may proceed: global remaining must be
	// positive, and when tenantID is set the tenant's remaining must be
	// positive as well. Point-in-time check, not a reservation.
	Admit(ctx context.Context, tenantID string) (bool, error)

	// Increment adds costUSD to the global month total and, when tenantID
	// is set, to the tenant's month total. Linearizable: concurrent
	// increments never lose updates.
	Increment(ctx context.Context, tenantID string, costUSD float64) error

	// Reset zeroes the global counter (empty tenantID) or the tenant's
	// counter. Admin/testing operation.
	Reset(ctx context.Context, tenantID string) error
}

// Limits holds the configured caps. Immutable after construction.
type Limits struct {
	// GlobalUSD is the global monthly cap (LLM_BUDGET_USD)
	GlobalUSD float64

	// DefaultTenantUSD is the cap for tenants without an override
	DefaultTenantUSD float64

	// TenantUSD maps tenant id to its override (TENANT_<id>_BUDGET_USD)
	TenantUSD map[string]float64
}

// TenantLimit resolves the cap for a tenant.
func (l Limits) TenantLimit(tenantID string) float64 {
	if limit, ok := l.TenantUSD[tenantID]; ok {
		return limit
	}
	return l.DefaultTenantUSD
}

// periodKey identifies the current budget month, e.g. "2026-08". Counters
// are keyed by it so a new month starts from zero.
func periodKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// statusFor builds a Status from a spend/limit pair.
func statusFor(tenantID string, spend, limit float64) Status {
	pct := 100.0
	if limit > 0 {
		pct = spend / limit * 100.0
	}
	return Status{
		MonthSpendUSD:  spend,
		LimitUSD:       limit,
		RemainingUSD:   limit - spend,
		PercentageUsed: pct,
		TenantID:       tenantID,
	}
}
