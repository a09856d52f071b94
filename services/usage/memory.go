package usage

import (
	"context"
	"sync"
	"time"
)

const defaultCapacity = 1000

// MemoryStore keeps the most recent entries in a bounded in-memory buffer.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{capacity: defaultCapacity}
}

func (s *MemoryStore) Record(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, NewEntry(entry))
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty tenantID returns
// entries for all tenants.
func (s *MemoryStore) Recent(_ context.Context, tenantID string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if tenantID != "" && s.entries[i].TenantID != tenantID {
			continue
		}
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *MemoryStore) TenantTotal(_ context.Context, tenantID string, since time.Time) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, e := range s.entries {
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		if e.CreatedAt.Before(since) {
			continue
		}
		total += e.CostUSD
	}
	return total, nil
}
