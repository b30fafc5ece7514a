package settlement

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/database/memory"
	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/event"
	"github.com/osse101/DCM_Go/internal/logger"
	"github.com/osse101/DCM_Go/internal/payout"
)

const tolerance = 1e-9

func testConfig() Config {
	return Config{
		DefaultLeverageBound: 5,
		MaxLeverageBound:     10,
		MaxParticipants:      5,
		BatchConcurrency:     2,
		CacheSize:            16,
		CacheTTL:             time.Minute,
	}
}

func sampleRequest() *domain.ComputeRequest {
	return &domain.ComputeRequest{
		Participants: []domain.Participant{
			{Name: "A", Stake: 100, Confidence: 80, Side: domain.SideYes},
			{Name: "B", Stake: 100, Confidence: 30, Side: domain.SideYes},
			{Name: "C", Stake: 100, Confidence: 60, Side: domain.SideNo},
		},
		WinningSide: domain.SideYes,
	}
}

func leverage(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*service, *recordingBus, *memory.ScenarioRepository) {
	t.Helper()
	repo := memory.NewScenarioRepository()
	bus := &recordingBus{}
	svc := NewService(repo, bus, testConfig()).(*service)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc, bus, repo
}

func drain(t *testing.T, svc Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
}

func TestCompute_AppliesDefaultLeverage(t *testing.T) {
	svc, bus, _ := newTestService(t)

	s, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, 5.0, s.LeverageBound)
	assert.Equal(t, payout.PolicyLinearV1, s.Policy)
	require.Len(t, s.Results, 3)
	assert.InDelta(t, 165.625, s.Results[0].Payout, tolerance)
	assert.InDelta(t, 134.375, s.Results[1].Payout, tolerance)
	assert.Equal(t, 0.0, s.Results[2].Payout)

	drain(t, svc)
	computed := bus.ofType(event.PayoutComputed)
	require.Len(t, computed, 1)
	assert.Equal(t, SourceDirect, computed[0].Metadata[event.MetadataKeySource])
}

func TestCompute_ExplicitLeverage(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := sampleRequest()
	req.LeverageBound = leverage(1)

	s, err := svc.Compute(context.Background(), req)
	require.NoError(t, err)

	// at L=1 weight equals stake, so the two winners split evenly
	assert.InDelta(t, 150.0, s.Results[0].Payout, tolerance)
	assert.InDelta(t, 150.0, s.Results[1].Payout, tolerance)
}

func TestCompute_SourceAndRequestIDInMetadata(t *testing.T) {
	svc, bus, _ := newTestService(t)
	ctx := logger.WithRequestID(WithSource(context.Background(), SourceAPI), "req-1")

	_, err := svc.Compute(ctx, sampleRequest())
	require.NoError(t, err)

	drain(t, svc)
	computed := bus.ofType(event.PayoutComputed)
	require.Len(t, computed, 1)
	assert.Equal(t, SourceAPI, computed[0].Metadata[event.MetadataKeySource])
	assert.Equal(t, "req-1", computed[0].Metadata[event.MetadataKeyRequestID])
}

func TestCompute_LeverageAboveMaximum(t *testing.T) {
	svc, bus, _ := newTestService(t)
	req := sampleRequest()
	req.LeverageBound = leverage(11)
	req.Participants[0].Stake = -1

	_, err := svc.Compute(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLeverageAboveMaximum)
	assert.ErrorIs(t, err, domain.ErrInvalidStake, "engine violations are reported alongside limits")

	verr, ok := payout.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields(), "leverage_bound")
	assert.Contains(t, verr.Fields(), "participants[0].stake")

	drain(t, svc)
	rejected := bus.ofType(event.PayoutRejected)
	require.Len(t, rejected, 1)
	payload := rejected[0].Payload.(domain.PayoutRejectedPayloadV1)
	assert.Equal(t, ReasonLeverageAboveMaximum, payload.Reason)
	assert.Empty(t, bus.ofType(event.PayoutComputed))
}

func TestCompute_TooManyParticipants(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := &domain.ComputeRequest{WinningSide: domain.SideNo}
	for i := 0; i < 6; i++ {
		req.Participants = append(req.Participants, domain.Participant{Stake: 1, Side: domain.SideNo})
	}

	_, err := svc.Compute(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrTooManyParticipants)
	verr, ok := payout.AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 1)
	assert.Equal(t, "participants", verr.Violations[0].Path())
}

func TestCompute_InvalidLeverageBound(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := sampleRequest()
	req.LeverageBound = leverage(math.NaN())

	_, err := svc.Compute(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidLeverageBound)
}

func TestCompute_NilRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Compute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCompute_EmptyMarket(t *testing.T) {
	svc, _, _ := newTestService(t)
	s, err := svc.Compute(context.Background(), &domain.ComputeRequest{WinningSide: domain.SideYes})
	require.NoError(t, err)
	assert.Empty(t, s.Results)
}

func TestRejectionReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidStake, ReasonInvalidStake},
		{&payout.ValidationError{Violations: []payout.Violation{{Err: domain.ErrInvalidSide}, {Err: domain.ErrInvalidStake}}}, ReasonInvalidSide},
		{domain.ErrInvalidConfidence, ReasonInvalidConfidence},
		{domain.ErrAmountOverflow, ReasonAmountOverflow},
		{errors.New("boom"), ReasonOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rejectionReason(tt.err), tt.err.Error())
	}
}

func TestComputeBatch_KeepsOrderAndIsolatesErrors(t *testing.T) {
	svc, bus, _ := newTestService(t)

	bad := sampleRequest()
	bad.Participants[1].Side = "MAYBE"
	noWins := sampleRequest()
	noWins.WinningSide = domain.SideNo

	results := svc.ComputeBatch(context.Background(), []domain.ComputeRequest{*sampleRequest(), *bad, *noWins})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	require.NotNil(t, results[0].Settlement)
	assert.Empty(t, results[0].Error)
	assert.Nil(t, results[1].Settlement)
	assert.Contains(t, results[1].Error, domain.ErrMsgInvalidSide)
	require.NotNil(t, results[2].Settlement)
	assert.InDelta(t, 300.0, results[2].Settlement.Results[2].Payout, tolerance)

	drain(t, svc)
	assert.Len(t, bus.ofType(event.PayoutComputed), 2)
	assert.Len(t, bus.ofType(event.PayoutRejected), 1)
}

func TestComputeBatch_CancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.ComputeBatch(ctx, []domain.ComputeRequest{*sampleRequest(), *sampleRequest()})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}

func TestComputeBatch_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Empty(t, svc.ComputeBatch(context.Background(), nil))
}

func TestSaveScenario_StoresInputAndCaches(t *testing.T) {
	svc, bus, repo := newTestService(t)

	view, err := svc.SaveScenario(context.Background(), &domain.ScenarioRequest{Name: "final", ComputeRequest: *sampleRequest()})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "final", view.Name)
	assert.Equal(t, 5.0, view.LeverageBound)
	assert.Equal(t, payout.PolicyLinearV1, view.Policy)
	require.NotNil(t, view.Settlement)
	assert.InDelta(t, 65.625, view.Settlement.Results[0].Profit, tolerance)

	stored, err := repo.GetScenario(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleRequest().Participants, stored.Participants)
	assert.Equal(t, 1, svc.cache.Len())

	drain(t, svc)
	saved := bus.ofType(event.ScenarioSaved)
	require.Len(t, saved, 1)
	computed := bus.ofType(event.PayoutComputed)
	require.Len(t, computed, 1)
	assert.Equal(t, view.ID, computed[0].Payload.(domain.PayoutComputedPayloadV1).ScenarioID)
}

func TestSaveScenario_InvalidInputIsNotStored(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, nil, testConfig())

	req := &domain.ScenarioRequest{Name: "bad", ComputeRequest: *sampleRequest()}
	req.Participants[2].Stake = math.Inf(1)

	_, err := svc.SaveScenario(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrInvalidStake)
	repo.AssertNotCalled(t, "CreateScenario", mock.Anything, mock.Anything)
}

func TestSaveScenario_StorageError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateScenario", mock.Anything, mock.Anything).Return(domain.ErrDatabaseError)
	svc := NewService(repo, nil, testConfig())

	_, err := svc.SaveScenario(context.Background(), &domain.ScenarioRequest{Name: "x", ComputeRequest: *sampleRequest()})

	assert.ErrorIs(t, err, domain.ErrDatabaseError)
	assert.Contains(t, err.Error(), ErrContextFailedToStoreScenario)
	repo.AssertExpectations(t)
}

func TestGetScenario_RecomputesOnCacheMiss(t *testing.T) {
	repo := new(MockRepository)
	stored := &domain.Scenario{
		ID:            "sc-1",
		Name:          "stored",
		Participants:  sampleRequest().Participants,
		WinningSide:   domain.SideYes,
		LeverageBound: 5,
		Policy:        payout.PolicyLinearV1,
	}
	repo.On("GetScenario", mock.Anything, "sc-1").Return(stored, nil).Once()
	svc := NewService(repo, nil, testConfig())

	first, err := svc.GetScenario(context.Background(), "sc-1")
	require.NoError(t, err)
	assert.InDelta(t, 134.375, first.Settlement.Results[1].Payout, tolerance)

	// mutating a returned view must not leak into the cache
	first.Settlement.Results[1].Payout = -1

	second, err := svc.GetScenario(context.Background(), "sc-1")
	require.NoError(t, err)
	assert.InDelta(t, 134.375, second.Settlement.Results[1].Payout, tolerance)

	repo.AssertNumberOfCalls(t, "GetScenario", 1)
}

func TestGetScenario_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetScenario(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestGetScenario_StoredInputNoLongerSettles(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetScenario", mock.Anything, "broken").Return(&domain.Scenario{
		ID:            "broken",
		Participants:  []domain.Participant{{Stake: -1, Side: domain.SideYes}},
		WinningSide:   domain.SideYes,
		LeverageBound: 5,
	}, nil)
	svc := NewService(repo, nil, testConfig())

	_, err := svc.GetScenario(context.Background(), "broken")
	assert.ErrorIs(t, err, domain.ErrInvalidStake)
	assert.ErrorIs(t, err, domain.ErrStoredScenarioInvalid)
	assert.Contains(t, err.Error(), ErrContextFailedToSettleScenario)
}

func TestListScenarios_DefaultLimit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListScenarios", mock.Anything, DefaultListLimit).Return(nil, nil)
	svc := NewService(repo, nil, testConfig())

	got, err := svc.ListScenarios(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	repo.AssertExpectations(t)
}

func TestListScenarios_NewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, name := range []string{"first", "second"} {
		_, err := svc.SaveScenario(context.Background(), &domain.ScenarioRequest{Name: name, ComputeRequest: *sampleRequest()})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := svc.ListScenarios(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Name)
}

func TestDeleteScenario_InvalidatesCache(t *testing.T) {
	svc, bus, _ := newTestService(t)
	view, err := svc.SaveScenario(context.Background(), &domain.ScenarioRequest{Name: "gone", ComputeRequest: *sampleRequest()})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteScenario(context.Background(), view.ID))
	assert.Zero(t, svc.cache.Len())

	_, err = svc.GetScenario(context.Background(), view.ID)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	err = svc.DeleteScenario(context.Background(), view.ID)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)

	drain(t, svc)
	assert.Len(t, bus.ofType(event.ScenarioDeleted), 1)
}

func TestReady(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Ping", mock.Anything).Return(errors.New("down"))
	svc := NewService(repo, nil, testConfig())

	assert.EqualError(t, svc.Ready(context.Background()), "down")
}

func TestShutdown_RespectsContext(t *testing.T) {
	blocking := &blockingBus{release: make(chan struct{})}
	svc := NewService(memory.NewScenarioRepository(), blocking, testConfig())
	_, err := svc.Compute(context.Background(), sampleRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Shutdown(ctx), context.DeadlineExceeded)

	close(blocking.release)
	assert.NoError(t, svc.Shutdown(context.Background()))
}

type blockingBus struct {
	release chan struct{}
}

func (b *blockingBus) Publish(context.Context, event.Event) error {
	<-b.release
	return nil
}

func (b *blockingBus) Subscribe(event.Type, event.Handler) {}
