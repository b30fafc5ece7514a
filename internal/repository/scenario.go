package repository

import (
	"context"

	"github.com/osse101/DCM_Go/internal/domain"
)

// Scenario defines the interface for data access required by the settlement service
type Scenario interface {
	CreateScenario(ctx context.Context, scenario *domain.Scenario) error
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)
	// ListScenarios returns the most recent scenarios first
	ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
