// Package routing maps task types to ordered provider fallback chains.
package routing

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the task → chain mapping. Configuration is static per
// process; Replace exists for operational hot-swap and takes a full new
// table. Reads are safe under arbitrary concurrency.
type Registry struct {
	mu           sync.RWMutex
	routes       map[string][]string
	defaultChain []string
	logger       *zap.Logger
}

// NewRegistry creates a registry from a routes table and a default chain.
// Nil maps/slices fall back to the built-in tables.
func NewRegistry(routes map[string][]string, defaultChain []string, logger *zap.Logger) *Registry {
	if routes == nil {
		routes = DefaultRoutes()
	}
	if len(defaultChain) == 0 {
		defaultChain = DefaultChain()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		routes:       copyRoutes(routes),
		defaultChain: append([]string(nil), defaultChain...),
		logger:       logger,
	}
}

// ChainFor returns the configured chain for a task. Unknown tasks resolve to
// the default chain with a logged warning; this is not an error condition.
func (r *Registry) ChainFor(task string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if chain, ok := r.routes[task]; ok {
		return append([]string(nil), chain...)
	}

	r.logger.Warn("unknown task, using default chain",
		zap.String("task", task),
		zap.Strings("default_chain", r.defaultChain))
	return append([]string(nil), r.defaultChain...)
}

// Replace swaps in a new routes table and default chain atomically.
func (r *Registry) Replace(routes map[string][]string, defaultChain []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = copyRoutes(routes)
	r.defaultChain = append([]string(nil), defaultChain...)
}

// Tasks returns all configured task types, sorted.
func (r *Registry) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]string, 0, len(r.routes))
	for task := range r.routes {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}

func copyRoutes(routes map[string][]string) map[string][]string {
	out := make(map[string][]string, len(routes))
	for task, chain := range routes {
		out[task] = append([]string(nil), chain...)
	}
	return out
}

// DefaultRoutes returns the built-in task → chain table.
func DefaultRoutes() map[string][]string {
	return map[string][]string{
		"ocr_extract":      {"deepseek", "openai", "local"},
		"policy_check":     {"anthropic", "openai"},
		"cheap_gen":        {"openai", "local"},
		"qa_rag":           {"openai", "anthropic"},
		"code_review":      {"anthropic", "openai"},
		"document_summary": {"deepseek", "openai"},
		"bir_compliance":   {"anthropic", "openai", "deepseek"},
		"finance_analysis": {"anthropic", "openai"},
	}
}

// DefaultChain is the chain used for tasks with no configured route.
func DefaultChain() []string {
	return []string{"openai", "local"}
}
