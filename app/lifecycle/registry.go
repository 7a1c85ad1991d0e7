package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JaimeStill/brainquery/app/services"
	"github.com/JaimeStill/brainquery/internal/logger"
)

// Registry manages the lifecycle of the brain/embedding-cache/embedder/
// llm/query collaborators that make up one engine instance, bringing them
// up in dependency order so the query service is never injected a
// collaborator that hasn't finished initializing.
type Registry struct {
	mu          sync.RWMutex
	services    map[string]services.Service
	order       []string
	initialized bool
	log         *logger.Logger
}

// NewRegistry creates an empty engine component registry. log may be nil,
// in which case lifecycle events are dropped rather than logged.
func NewRegistry(log *logger.Logger) *Registry {
	if log != nil {
		log = log.WithComponent("lifecycle")
	}
	return &Registry{services: make(map[string]services.Service), log: log}
}

func (r *Registry) logInfo(msg string, args ...any) {
	if r.log != nil {
		r.log.Info(msg, args...)
	}
}

func (r *Registry) logError(msg string, args ...any) {
	if r.log != nil {
		r.log.Error(msg, args...)
	}
}

// Register adds a service before initialization.
func (r *Registry) Register(service services.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("cannot register service after initialization")
	}

	name := service.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	r.services[name] = service
	r.logInfo("engine component registered", "name", name)
	return nil
}

// Get retrieves a service by name.
func (r *Registry) Get(name string) services.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[name]
}

// InitializeAll initializes every service in dependency order.
func (r *Registry) InitializeAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	if err := r.computeInitializationOrder(); err != nil {
		return fmt.Errorf("compute initialization order: %w", err)
	}

	for _, name := range r.order {
		service := r.services[name]
		r.logInfo("initializing engine component", "name", name)
		if err := service.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize service %s: %w", name, err)
		}
	}

	r.initialized = true
	return nil
}

// StartAll starts every service in initialization order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return fmt.Errorf("services must be initialized before starting")
	}

	for _, name := range r.order {
		service := r.services[name]
		r.logInfo("starting engine component", "name", name)
		if err := service.Start(ctx); err != nil {
			return fmt.Errorf("start service %s: %w", name, err)
		}
	}

	return nil
}

// StopAll stops every service in reverse order, continuing past failures.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		service := r.services[name]
		if err := service.Stop(ctx); err != nil {
			r.logError("failed to stop engine component", "name", name, "error", err)
		}
	}

	return nil
}

// HealthReport is a timestamped snapshot of every engine component's
// HealthCheck result, so a caller can tell how stale a "healthy" verdict
// is without re-running the checks (the brain/embedder/llm collaborators
// can each degrade independently between query calls).
type HealthReport struct {
	CheckedAt time.Time
	Results   map[string]error
}

// Unhealthy returns the component names whose check failed.
func (h HealthReport) Unhealthy() []string {
	var names []string
	for name, err := range h.Results {
		if err != nil {
			names = append(names, name)
		}
	}
	return names
}

// HealthCheckAll runs every component's health check and stamps the result.
func (r *Registry) HealthCheckAll(ctx context.Context) HealthReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.services))
	for name, service := range r.services {
		results[name] = service.HealthCheck(ctx)
	}
	return HealthReport{CheckedAt: time.Now(), Results: results}
}

// computeInitializationOrder topologically sorts services by declared
// dependency (services.Dependencies).
func (r *Registry) computeInitializationOrder() error {
	visited := make(map[string]bool)
	tempMark := make(map[string]bool)
	order := make([]string, 0, len(r.services))

	var visit func(string) error
	visit = func(name string) error {
		if tempMark[name] {
			return fmt.Errorf("circular dependency detected at service %s", name)
		}
		if visited[name] {
			return nil
		}

		tempMark[name] = true
		service := r.services[name]

		if depService, ok := service.(services.Dependencies); ok {
			for _, dep := range depService.Require() {
				if _, exists := r.services[dep]; !exists {
					return fmt.Errorf("service %s depends on non-existent service %s", name, dep)
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		tempMark[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for name := range r.services {
		if err := visit(name); err != nil {
			return err
		}
	}

	r.order = order
	return nil
}
