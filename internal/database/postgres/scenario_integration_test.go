package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osse101/DCM_Go/internal/database"
	"github.com/osse101/DCM_Go/internal/domain"
)

// setupPostgres starts a disposable database with migrations applied.
// The test is skipped when Docker is unavailable.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	var pgContainer *postgres.PostgresContainer
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Skipping integration test due to panic (likely Docker issue): %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
	}()
	if err != nil {
		t.Skipf("Skipping integration test: failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPool(ctx, connStr, database.PoolConfig{
		MaxConns:    5,
		MaxConnIdle: time.Minute,
		MaxConnLife: 5 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

func TestScenarioRepository_Integration(t *testing.T) {
	pool := setupPostgres(t)
	repo := NewScenarioRepository(pool)
	ctx := context.Background()

	newScenario := func(name string) *domain.Scenario {
		return &domain.Scenario{
			Name: name,
			Participants: []domain.Participant{
				{Name: "A", Stake: 100, Confidence: 80, Side: domain.SideYes},
				{Name: "B", Stake: 100, Confidence: 30, Side: domain.SideYes},
				{Name: "C", Stake: 100, Confidence: 60, Side: domain.SideNo},
			},
			WinningSide:   domain.SideYes,
			LeverageBound: 5,
			Policy:        "linear-v1",
		}
	}

	t.Run("create and get round trip", func(t *testing.T) {
		s := newScenario("sample")
		require.NoError(t, repo.CreateScenario(ctx, s))
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())

		got, err := repo.GetScenario(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.Name, got.Name)
		assert.Equal(t, s.Participants, got.Participants)
		assert.Equal(t, domain.SideYes, got.WinningSide)
		assert.Equal(t, 5.0, got.LeverageBound)
		assert.Equal(t, "linear-v1", got.Policy)
		assert.WithinDuration(t, s.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("empty participants stored as empty list", func(t *testing.T) {
		s := newScenario("empty")
		s.Participants = nil
		require.NoError(t, repo.CreateScenario(ctx, s))

		got, err := repo.GetScenario(ctx, s.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.Participants)
		assert.Empty(t, got.Participants)
	})

	t.Run("missing and malformed ids are not found", func(t *testing.T) {
		_, err := repo.GetScenario(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

		_, err = repo.GetScenario(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		base := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
		for i, name := range []string{"old", "mid", "new"} {
			s := newScenario(name)
			s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.CreateScenario(ctx, s))
		}

		list, err := repo.ListScenarios(ctx, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "new", list[0].Name)
		assert.Equal(t, "mid", list[1].Name)
	})

	t.Run("delete", func(t *testing.T) {
		s := newScenario("doomed")
		require.NoError(t, repo.CreateScenario(ctx, s))
		require.NoError(t, repo.DeleteScenario(ctx, s.ID))

		_, err := repo.GetScenario(ctx, s.ID)
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
		assert.ErrorIs(t, repo.DeleteScenario(ctx, s.ID), domain.ErrScenarioNotFound)
	})

	t.Run("check constraint rejects bad leverage", func(t *testing.T) {
		s := newScenario("bad")
		s.LeverageBound = 0.5
		assert.Error(t, repo.CreateScenario(ctx, s))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
