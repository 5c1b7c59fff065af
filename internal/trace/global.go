package trace

import "sync"

var (
	globalMu sync.Mutex
	global   *Registry
)

// Global returns the process-wide registry, creating a safe-mode registry
// on first use. Libraries that cannot be handed a Registry trace through it.
func Global() *Registry {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New(WithSafeMode())
	}
	return global
}

// SetGlobal replaces the process-wide registry and returns the previous
// one, which may be nil. The caller owns closing it.
func SetGlobal(r *Registry) *Registry {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := global
	global = r
	return prev
}
