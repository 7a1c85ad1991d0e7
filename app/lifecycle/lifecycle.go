package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// LifecycleManager handles process-level shutdown coordination.
type LifecycleManager struct {
	registry      *Registry
	shutdownFuncs []func(context.Context) error
	mu            sync.Mutex
}

// NewLifecycleManager creates a LifecycleManager bound to registry.
func NewLifecycleManager(registry *Registry) *LifecycleManager {
	return &LifecycleManager{registry: registry}
}

// OnShutdown registers a function to run during shutdown, most-recently
// registered first.
func (m *LifecycleManager) OnShutdown(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownFuncs = append(m.shutdownFuncs, fn)
}

// WaitForShutdown blocks until SIGINT/SIGTERM or ctx cancellation, then
// runs shutdown hooks and stops every engine component so an in-flight
// brain load or LLM call isn't left holding a half-torn-down collaborator.
func (m *LifecycleManager) WaitForShutdown(ctx context.Context, timeout time.Duration) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	reason := "context cancelled"
	select {
	case sig := <-sigChan:
		reason = "signal received: " + sig.String()
	case <-ctx.Done():
	}
	m.registry.logInfo("shutting down", "reason", reason)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m.mu.Lock()
	funcs := make([]func(context.Context) error, len(m.shutdownFuncs))
	copy(funcs, m.shutdownFuncs)
	m.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](shutdownCtx); err != nil {
			m.registry.logError("shutdown hook failed, continuing", "index", i, "error", err)
		}
	}

	return m.registry.StopAll(shutdownCtx)
}
