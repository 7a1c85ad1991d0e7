package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/brainquery/app/services"
)

// fakeService is a minimal services.Service + services.Dependencies used
// to exercise the registry's topological sort without any real collaborator.
type fakeService struct {
	services.BaseService
	initOrder *[]string
	stopOrder *[]string
}

func newFakeService(name string, initOrder *[]string, deps ...string) *fakeService {
	return &fakeService{BaseService: services.NewBaseService(name, deps...), initOrder: initOrder}
}

func (s *fakeService) Initialize(ctx context.Context) error {
	*s.initOrder = append(*s.initOrder, s.Name())
	return nil
}
func (s *fakeService) Start(ctx context.Context) error { return nil }
func (s *fakeService) Stop(ctx context.Context) error {
	if s.stopOrder != nil {
		*s.stopOrder = append(*s.stopOrder, s.Name())
	}
	return nil
}
func (s *fakeService) HealthCheck(ctx context.Context) error { return nil }

type fakeServiceWithHealth struct {
	fakeService
	healthErr error
}

func (s *fakeServiceWithHealth) HealthCheck(ctx context.Context) error { return s.healthErr }

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestInitializeAllRespectsDependencyOrder(t *testing.T) {
	var order []string
	registry := NewRegistry(nil)

	require.NoError(t, registry.Register(newFakeService("c", &order, "b")))
	require.NoError(t, registry.Register(newFakeService("b", &order, "a")))
	require.NoError(t, registry.Register(newFakeService("a", &order)))

	require.NoError(t, registry.InitializeAll(context.Background()))

	require.Len(t, order, 3)
	assert.Less(t, indexOf(order, "a"), indexOf(order, "b"))
	assert.Less(t, indexOf(order, "b"), indexOf(order, "c"))
}

func TestInitializeAllDetectsCircularDependency(t *testing.T) {
	var order []string
	registry := NewRegistry(nil)

	require.NoError(t, registry.Register(newFakeService("a", &order, "b")))
	require.NoError(t, registry.Register(newFakeService("b", &order, "a")))

	err := registry.InitializeAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestInitializeAllFailsOnMissingDependency(t *testing.T) {
	var order []string
	registry := NewRegistry(nil)

	require.NoError(t, registry.Register(newFakeService("a", &order, "missing")))

	err := registry.InitializeAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-existent")
}

func TestRegisterAfterInitializationFails(t *testing.T) {
	var order []string
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(newFakeService("a", &order)))
	require.NoError(t, registry.InitializeAll(context.Background()))

	err := registry.Register(newFakeService("b", &order))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after initialization")
}

func TestStopAllRunsInReverseOrder(t *testing.T) {
	var order []string
	var stopOrder []string
	registry := NewRegistry(nil)

	a := newFakeService("a", &order)
	b := newFakeService("b", &order, "a")
	a.stopOrder = &stopOrder
	b.stopOrder = &stopOrder
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))
	require.NoError(t, registry.InitializeAll(context.Background()))

	require.NoError(t, registry.StopAll(context.Background()))
	assert.Equal(t, []string{"b", "a"}, stopOrder)
}

func TestHealthCheckAllReportsUnhealthyComponents(t *testing.T) {
	var order []string
	registry := NewRegistry(nil)

	healthy := &fakeServiceWithHealth{fakeService: fakeService{BaseService: services.NewBaseService("healthy"), initOrder: &order}}
	degraded := &fakeServiceWithHealth{fakeService: fakeService{BaseService: services.NewBaseService("degraded"), initOrder: &order}, healthErr: assert.AnError}

	require.NoError(t, registry.Register(healthy))
	require.NoError(t, registry.Register(degraded))
	require.NoError(t, registry.InitializeAll(context.Background()))

	report := registry.HealthCheckAll(context.Background())
	assert.False(t, report.CheckedAt.IsZero())
	assert.ElementsMatch(t, []string{"degraded"}, report.Unhealthy())
}
