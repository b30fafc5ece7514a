package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/DCM_Go/internal/domain"
)

// ScenarioRepository implements repository.Scenario for PostgreSQL
type ScenarioRepository struct {
	db *pgxpool.Pool
}

// NewScenarioRepository creates a new ScenarioRepository
func NewScenarioRepository(db *pgxpool.Pool) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

const (
	insertScenarioSQL = `
INSERT INTO scenarios (scenario_id, name, participants, winning_side, leverage_bound, policy, created_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
RETURNING created_at`

	selectScenarioSQL = `
SELECT scenario_id, name, participants, winning_side, leverage_bound, policy, created_at
FROM scenarios
WHERE scenario_id = $1`

	listScenariosSQL = `
SELECT scenario_id, name, participants, winning_side, leverage_bound, policy, created_at
FROM scenarios
ORDER BY created_at DESC, scenario_id DESC
LIMIT $1`

	deleteScenarioSQL = `DELETE FROM scenarios WHERE scenario_id = $1`
)

// CreateScenario inserts a scenario, assigning its ID when empty
func (r *ScenarioRepository) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	id := uuid.New()
	if scenario.ID != "" {
		parsed, err := parseScenarioID(scenario.ID)
		if err != nil {
			return err
		}
		id = parsed
	}

	participants, err := json.Marshal(nonNil(scenario.Participants))
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	var createdAt *time.Time
	if !scenario.CreatedAt.IsZero() {
		createdAt = &scenario.CreatedAt
	}

	var stored time.Time
	err = r.db.QueryRow(ctx, insertScenarioSQL,
		id, scenario.Name, participants, string(scenario.WinningSide),
		scenario.LeverageBound, scenario.Policy, createdAt,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}

	scenario.ID = id.String()
	scenario.CreatedAt = stored.UTC()
	return nil
}

// GetScenario retrieves a scenario by ID
func (r *ScenarioRepository) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		// an ID that cannot exist is reported the same way as a missing row
		return nil, domain.ErrScenarioNotFound
	}

	s, err := scanScenario(r.db.QueryRow(ctx, selectScenarioSQL, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScenarioNotFound
		}
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

// ListScenarios returns up to limit scenarios, newest first
func (r *ScenarioRepository) ListScenarios(ctx context.Context, limit int) ([]domain.Scenario, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(ctx, listScenariosSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := make([]domain.Scenario, 0)
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return scenarios, nil
}

// DeleteScenario removes a scenario by ID
func (r *ScenarioRepository) DeleteScenario(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrScenarioNotFound
	}

	tag, err := r.db.Exec(ctx, deleteScenarioSQL, uid)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScenarioNotFound
	}
	return nil
}

// Ping checks database connectivity
func (r *ScenarioRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanScenario(row pgx.Row) (*domain.Scenario, error) {
	var (
		id           uuid.UUID
		s            domain.Scenario
		participants []byte
		side         string
	)
	if err := row.Scan(&id, &s.Name, &participants, &side, &s.LeverageBound, &s.Policy, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(participants, &s.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	s.ID = id.String()
	s.WinningSide = domain.Side(side)
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
