package settlement

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/event"
)

// MockRepository implements repository.Scenario
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	args := m.Called(ctx, scenario)
	return args.Error(0)
}

func (m *MockRepository) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scenario), args.Error(1)
}

func (m *MockRepository) ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Scenario), args.Error(1)
}

func (m *MockRepository) DeleteScenario(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingBus captures published events
type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(_ context.Context, e event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) Subscribe(event.Type, event.Handler) {}

func (b *recordingBus) ofType(t event.Type) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
