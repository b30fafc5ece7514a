// Package memory keeps scenarios in process memory. It backs the service
// when STORAGE_DRIVER=memory and doubles as a test store.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/DCM_Go/internal/domain"
)

// ScenarioRepository is a concurrency-safe in-memory repository.Scenario
type ScenarioRepository struct {
	mu        sync.RWMutex
	scenarios map[string]domain.Scenario
	now       func() time.Time
}

// NewScenarioRepository creates an empty store
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{
		scenarios: make(map[string]domain.Scenario),
		now:       time.Now,
	}
}

// CreateScenario assigns an ID and creation time when missing and stores a copy
func (r *ScenarioRepository) CreateScenario(_ context.Context, scenario *domain.Scenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.NewString()
	}
	if scenario.CreatedAt.IsZero() {
		scenario.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[scenario.ID] = clone(*scenario)
	return nil
}

// GetScenario returns a copy of the stored scenario
func (r *ScenarioRepository) GetScenario(_ context.Context, id string) (*domain.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scenarios[id]
	if !ok {
		return nil, domain.ErrScenarioNotFound
	}
	out := clone(s)
	return &out, nil
}

// ListScenarios returns up to limit scenarios, newest first
func (r *ScenarioRepository) ListScenarios(_ context.Context, limit int) ([]domain.Scenario, error) {
	r.mu.RLock()
	out := make([]domain.Scenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		out = append(out, clone(s))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteScenario removes a scenario
func (r *ScenarioRepository) DeleteScenario(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scenarios[id]; !ok {
		return domain.ErrScenarioNotFound
	}
	delete(r.scenarios, id)
	return nil
}

// Ping always succeeds
func (r *ScenarioRepository) Ping(context.Context) error {
	return nil
}

func clone(s domain.Scenario) domain.Scenario {
	s.Participants = slices.Clone(s.Participants)
	return s
}
