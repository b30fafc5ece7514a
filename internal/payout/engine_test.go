package payout

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/domain"
)

const tolerance = 1e-9

func sampleMarket() []domain.Participant {
	return []domain.Participant{
		{Name: "A", Stake: 100, Confidence: 80, Side: domain.SideYes},
		{Name: "B", Stake: 100, Confidence: 30, Side: domain.SideYes},
		{Name: "C", Stake: 100, Confidence: 60, Side: domain.SideNo},
	}
}

func TestComputePayouts_SampleMarket(t *testing.T) {
	results, err := ComputePayouts(sampleMarket(), domain.SideYes, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	a, b, c := results[0], results[1], results[2]

	assert.Equal(t, "A", a.Name)
	assert.InDelta(t, 4.2, a.Multiplier, tolerance)
	assert.InDelta(t, 420.0, a.Weight, tolerance)
	assert.InDelta(t, 65.625, a.Profit, tolerance)
	assert.InDelta(t, 165.625, a.Payout, tolerance)

	assert.Equal(t, "B", b.Name)
	assert.InDelta(t, 2.2, b.Multiplier, tolerance)
	assert.InDelta(t, 220.0, b.Weight, tolerance)
	assert.InDelta(t, 34.375, b.Profit, tolerance)
	assert.InDelta(t, 134.375, b.Payout, tolerance)

	assert.Equal(t, "C", c.Name)
	assert.InDelta(t, 3.4, c.Multiplier, tolerance)
	assert.InDelta(t, 340.0, c.Weight, tolerance)
	assert.Equal(t, 0.0, c.Payout)
	assert.Equal(t, -100.0, c.Profit)
}

func TestCompute_PoolSummary(t *testing.T) {
	s, err := Compute(sampleMarket(), domain.SideYes, 5)
	require.NoError(t, err)

	assert.Equal(t, domain.SideYes, s.WinningSide)
	assert.Equal(t, 5.0, s.LeverageBound)
	assert.Equal(t, PolicyLinearV1, s.Policy)

	assert.Equal(t, 2, s.Pools.Yes.Participants)
	assert.InDelta(t, 200.0, s.Pools.Yes.TotalStake, tolerance)
	assert.InDelta(t, 640.0, s.Pools.Yes.TotalWeight, tolerance)
	assert.Equal(t, 1, s.Pools.No.Participants)
	assert.InDelta(t, 100.0, s.Pools.No.TotalStake, tolerance)
	assert.InDelta(t, 340.0, s.Pools.No.TotalWeight, tolerance)

	assert.InDelta(t, 100.0, s.Pools.LosingPool, tolerance)
	assert.InDelta(t, 640.0, s.Pools.WinnerTotalWeight, tolerance)
	assert.Equal(t, 0.0, s.Pools.Unclaimed)
	assert.InDelta(t, 300.0, s.TotalPayout(), tolerance)
}

func TestCompute_NoWinnersLeavesPoolUnclaimed(t *testing.T) {
	participants := []domain.Participant{
		{Name: "solo", Stake: 100, Confidence: 50, Side: domain.SideYes},
	}

	s, err := Compute(participants, domain.SideNo, 5)
	require.NoError(t, err)
	require.Len(t, s.Results, 1)

	assert.Equal(t, 0.0, s.Results[0].Payout)
	assert.Equal(t, -100.0, s.Results[0].Profit)
	assert.Equal(t, 0.0, s.TotalPayout())
	assert.Equal(t, 0.0, s.Pools.WinnerTotalWeight)
	assert.Equal(t, 100.0, s.Pools.Unclaimed)
}

func TestCompute_ZeroWeightWinners(t *testing.T) {
	participants := []domain.Participant{
		{Name: "free", Stake: 0, Confidence: 100, Side: domain.SideYes},
		{Name: "loser", Stake: 50, Confidence: 10, Side: domain.SideNo},
	}

	s, err := Compute(participants, domain.SideYes, 3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.Results[0].Profit)
	assert.Equal(t, 0.0, s.Results[0].Payout)
	assert.False(t, math.IsNaN(s.Results[0].Profit))
	assert.Equal(t, 0.0, s.Results[1].Payout)
	assert.Equal(t, -50.0, s.Results[1].Profit)
	assert.Equal(t, 50.0, s.Pools.Unclaimed)
}

func TestComputePayouts_EmptyInput(t *testing.T) {
	results, err := ComputePayouts(nil, domain.SideYes, 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = ComputePayouts([]domain.Participant{}, domain.SideNo, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestComputePayouts_EmptySideIsNotAnError(t *testing.T) {
	participants := []domain.Participant{
		{Name: "y1", Stake: 10, Confidence: 20, Side: domain.SideYes},
		{Name: "y2", Stake: 30, Confidence: 90, Side: domain.SideYes},
	}

	results, err := ComputePayouts(participants, domain.SideYes, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, 0.0, r.Profit)
		assert.Equal(t, r.Stake, r.Payout)
	}
}

func TestComputePayouts_ConfidenceIsClamped(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       float64
	}{
		{"below range", -40, 1},
		{"lower bound", 0, 1},
		{"midpoint", 50, 3},
		{"upper bound", 100, 5},
		{"above range", 250, 5},
		{"negative infinity", math.Inf(-1), 1},
		{"positive infinity", math.Inf(1), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participants := []domain.Participant{{Name: "p", Stake: 10, Confidence: tt.confidence, Side: domain.SideYes}}
			results, err := ComputePayouts(participants, domain.SideYes, 5)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, results[0].Multiplier, tolerance)
			assert.Equal(t, tt.confidence, results[0].Confidence, "result keeps the submitted confidence")
		})
	}
}

func TestComputePayouts_LeverageBoundOfOne(t *testing.T) {
	results, err := ComputePayouts(sampleMarket(), domain.SideYes, 1)
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, 1.0, r.Multiplier)
		assert.Equal(t, r.Stake, r.Weight)
	}
	assert.InDelta(t, 50.0, results[0].Profit, tolerance)
	assert.InDelta(t, 50.0, results[1].Profit, tolerance)
}

func TestComputePayouts_InvalidStake(t *testing.T) {
	tests := []struct {
		name  string
		stake float64
	}{
		{"negative", -1},
		{"nan", math.NaN()},
		{"infinite", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			participants := sampleMarket()
			participants[1].Stake = tt.stake

			results, err := ComputePayouts(participants, domain.SideYes, 5)
			require.Error(t, err)
			assert.Nil(t, results)
			assert.True(t, errors.Is(err, domain.ErrInvalidStake))

			verr, ok := AsValidationError(err)
			require.True(t, ok)
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, 1, verr.Violations[0].Index)
			assert.Equal(t, "B", verr.Violations[0].Name)
			assert.Equal(t, FieldStake, verr.Violations[0].Field)
			assert.Contains(t, err.Error(), `"B"`)
			assert.Contains(t, verr.Fields(), "participants[1].stake")
		})
	}
}

func TestComputePayouts_InvalidLeverageBound(t *testing.T) {
	for _, bound := range []float64{0.99, 0, -5, math.NaN(), math.Inf(1)} {
		results, err := ComputePayouts(sampleMarket(), domain.SideYes, bound)
		require.Error(t, err, "bound %v", bound)
		assert.Nil(t, results)
		assert.ErrorIs(t, err, domain.ErrInvalidLeverageBound)

		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, NoParticipant, verr.Violations[0].Index)
		assert.Equal(t, FieldLeverageBound, verr.Violations[0].Path())
	}
}

func TestComputePayouts_InvalidSides(t *testing.T) {
	participants := sampleMarket()
	participants[2].Side = "MAYBE"

	_, err := ComputePayouts(participants, domain.SideYes, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSide)

	_, err = ComputePayouts(sampleMarket(), "yes", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSide)
}

func TestComputePayouts_NaNConfidenceRejected(t *testing.T) {
	participants := sampleMarket()
	participants[0].Confidence = math.NaN()

	_, err := ComputePayouts(participants, domain.SideYes, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfidence)
}

func TestComputePayouts_ReportsEveryViolation(t *testing.T) {
	participants := sampleMarket()
	participants[0].Stake = -10
	participants[2].Stake = -1

	_, err := ComputePayouts(participants, domain.SideYes, 0.5)
	require.Error(t, err)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidStake)
	assert.ErrorIs(t, err, domain.ErrInvalidLeverageBound)

	fields := verr.Fields()
	assert.Contains(t, fields, "participants[0].stake")
	assert.Contains(t, fields, "participants[2].stake")
	assert.Contains(t, fields, "leverage_bound")
}

func TestComputePayouts_AmountOverflowRejected(t *testing.T) {
	tests := []struct {
		name          string
		participants  []domain.Participant
		leverageBound float64
		wantIndex     int
	}{
		{
			name: "weight overflows",
			participants: []domain.Participant{
				{Name: "A", Stake: 1e308, Confidence: 100, Side: domain.SideYes},
				{Name: "B", Stake: 1, Confidence: 0, Side: domain.SideYes},
				{Name: "C", Stake: 100, Confidence: 0, Side: domain.SideNo},
			},
			leverageBound: 5,
			wantIndex:     0,
		},
		{
			name: "side weight overflows",
			participants: []domain.Participant{
				{Name: "A", Stake: 1, Side: domain.SideNo},
				{Name: "B", Stake: 1e308, Confidence: 50, Side: domain.SideYes},
				{Name: "C", Stake: 1e308, Confidence: 50, Side: domain.SideYes},
			},
			leverageBound: 1.5,
			wantIndex:     2,
		},
		{
			name: "stake total overflows across sides",
			participants: []domain.Participant{
				{Name: "A", Stake: math.MaxFloat64, Side: domain.SideYes},
				{Name: "B", Stake: math.MaxFloat64, Side: domain.SideNo},
			},
			leverageBound: 1,
			wantIndex:     1,
		},
		{
			name: "huge leverage bound",
			participants: []domain.Participant{
				{Name: "A", Stake: 10, Confidence: 100, Side: domain.SideYes},
				{Name: "B", Stake: 10, Side: domain.SideNo},
			},
			leverageBound: math.MaxFloat64,
			wantIndex:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compute(tt.participants, domain.SideYes, tt.leverageBound)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, domain.ErrAmountOverflow)

			verr, ok := AsValidationError(err)
			require.True(t, ok)
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, tt.wantIndex, verr.Violations[0].Index)
			assert.Equal(t, FieldStake, verr.Violations[0].Field)
			assert.Equal(t, domain.ErrMsgAmountOverflow, verr.Fields()[verr.Violations[0].Path()])
		})
	}
}

func TestCompute_LargeFiniteStakesStayFinite(t *testing.T) {
	participants := []domain.Participant{
		{Name: "A", Stake: 1e307, Confidence: 100, Side: domain.SideYes},
		{Name: "B", Stake: 1e307, Confidence: 0, Side: domain.SideYes},
		{Name: "C", Stake: 1e307, Confidence: 0, Side: domain.SideNo},
	}

	s, err := Compute(participants, domain.SideYes, 5)
	require.NoError(t, err)

	for _, r := range s.Results {
		assert.False(t, math.IsNaN(r.Payout) || math.IsInf(r.Payout, 0), r.Name)
		assert.False(t, math.IsNaN(r.Profit) || math.IsInf(r.Profit, 0), r.Name)
		assert.GreaterOrEqual(t, r.Payout, 0.0, r.Name)
	}
	assert.InEpsilon(t, 3e307, s.TotalPayout(), 1e-9)
	assert.InEpsilon(t, 1e307*5/6, s.Results[0].Profit, 1e-9)
}

func TestViolationDetail(t *testing.T) {
	tests := []struct {
		violation Violation
		want      string
	}{
		{Violation{Index: 1, Field: FieldStake, Value: -1, Err: domain.ErrInvalidStake}, "invalid stake (got -1)"},
		{Violation{Index: NoParticipant, Field: FieldLeverageBound, Value: 0.5, Err: domain.ErrInvalidLeverageBound}, "invalid leverage bound (got 0.5)"},
		{Violation{Index: 0, Field: FieldConfidence, Value: math.NaN(), Err: domain.ErrInvalidConfidence}, "invalid confidence (got NaN)"},
		{Violation{Index: 0, Field: FieldSide, Err: domain.ErrInvalidSide}, "invalid side"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.violation.Detail())
	}
}

func TestComputePayouts_DoesNotMutateInput(t *testing.T) {
	participants := sampleMarket()
	participants[0].Confidence = 140
	snapshot := append([]domain.Participant(nil), participants...)

	_, err := ComputePayouts(participants, domain.SideYes, 5)
	require.NoError(t, err)
	assert.Equal(t, snapshot, participants)
}

func TestComputePayouts_FreshResultsEachCall(t *testing.T) {
	first, err := ComputePayouts(sampleMarket(), domain.SideYes, 5)
	require.NoError(t, err)
	second, err := ComputePayouts(sampleMarket(), domain.SideYes, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	first[0].Payout = -1
	assert.NotEqual(t, first[0].Payout, second[0].Payout)
}

func TestComputePayouts_ConcurrentCallersShareInput(t *testing.T) {
	participants := sampleMarket()
	want, err := ComputePayouts(participants, domain.SideYes, 5)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ComputePayouts(participants, domain.SideYes, 5)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
