package budget

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is the in-process Ledger used for single-instance deployments
// and tests. All counters live behind one mutex, so increments are trivially
// linearizable.
type MemoryLedger struct {
	mu     sync.Mutex
	limits Limits
	now    func() time.Time

	// spend keyed by period, then by scope ("" = global, otherwise tenant id)
	global  map[string]float64
	tenants map[string]map[string]float64
}

// NewMemoryLedger creates a ledger with the given limits.
func NewMemoryLedger(limits Limits) *MemoryLedger {
	return &MemoryLedger{
		limits:  limits,
		now:     time.Now,
		global:  make(map[string]float64),
		tenants: make(map[string]map[string]float64),
	}
}

// WithClock overrides the ledger's clock. Test hook.
func (l *MemoryLedger) WithClock(now func() time.Time) *MemoryLedger {
	l.now = now
	return l
}

func (l *MemoryLedger) Check(ctx context.Context, tenantID string) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := periodKey(l.now())
	if tenantID == "" {
		return statusFor("", l.global[period], l.limits.GlobalUSD), nil
	}
	return statusFor(tenantID, l.tenantSpend(tenantID, period), l.limits.TenantLimit(tenantID)), nil
}

func (l *MemoryLedger) Admit(ctx context.Context, tenantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := periodKey(l.now())
	if l.limits.GlobalUSD-l.global[period] <= 0 {
		return false, nil
	}
	if tenantID != "" && l.limits.TenantLimit(tenantID)-l.tenantSpend(tenantID, period) <= 0 {
		return false, nil
	}
	return true, nil
}

func (l *MemoryLedger) Increment(ctx context.Context, tenantID string, costUSD float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := periodKey(l.now())
	l.global[period] += costUSD
	if tenantID != "" {
		if l.tenants[tenantID] == nil {
			l.tenants[tenantID] = make(map[string]float64)
		}
		l.tenants[tenantID][period] += costUSD
	}
	return nil
}

func (l *MemoryLedger) Reset(ctx context.Context, tenantID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := periodKey(l.now())
	if tenantID == "" {
		l.global[period] = 0
		return nil
	}
	if l.tenants[tenantID] != nil {
		l.tenants[tenantID][period] = 0
	}
	return nil
}

func (l *MemoryLedger) tenantSpend(tenantID, period string) float64 {
	if byPeriod, ok := l.tenants[tenantID]; ok {
		return byPeriod[period]
	}
	return 0
}
