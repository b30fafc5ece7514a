// Package payout settles binary-outcome staking pools.
//
// A settlement runs three stages over an immutable participant list:
// weights are assigned from stake and clamped confidence, both sides are
// aggregated, then the losing side's stake is distributed across winners in
// proportion to weight. The package holds no state and every call is safe
// for concurrent use.
package payout

import (
	"math"

	"github.com/osse101/DCM_Go/internal/domain"
)

// ComputePayouts settles one market and returns a result for every
// participant, in input order. The input slice is never modified.
//
// The call is all-or-nothing: any negative or non-finite stake, invalid side
// or invalid leverage bound returns a *ValidationError and no results. So do
// stakes large enough that a weight or pool total leaves the float64 range.
// Out-of-range confidence is clamped silently.
func ComputePayouts(participants []domain.Participant, winningSide domain.Side, leverageBound float64) ([]domain.ParticipantResult, error) {
	settlement, err := Compute(participants, winningSide, leverageBound)
	if err != nil {
		return nil, err
	}
	return settlement.Results, nil
}

// Compute is ComputePayouts plus the pool aggregates that produced the results
func Compute(participants []domain.Participant, winningSide domain.Side, leverageBound float64) (*domain.Settlement, error) {
	if err := Validate(participants, winningSide, leverageBound); err != nil {
		return nil, err
	}

	weights := assignWeights(participants, leverageBound)
	if err := checkTotals(participants, weights); err != nil {
		return nil, err
	}
	pools := aggregatePools(participants, weights, winningSide)
	results := distribute(participants, weights, winningSide, pools)

	return &domain.Settlement{
		WinningSide:   winningSide,
		LeverageBound: leverageBound,
		Policy:        PolicyLinearV1,
		Results:       results,
		Pools:         pools,
	}, nil
}

// Validate checks every input the engine refuses to compute over and reports
// all violations at once.
func Validate(participants []domain.Participant, winningSide domain.Side, leverageBound float64) error {
	var violations []Violation

	if math.IsNaN(leverageBound) || math.IsInf(leverageBound, 0) || leverageBound < MinLeverageBound {
		violations = append(violations, Violation{
			Index: NoParticipant,
			Field: FieldLeverageBound,
			Value: leverageBound,
			Err:   domain.ErrInvalidLeverageBound,
		})
	}

	if !winningSide.Valid() {
		violations = append(violations, Violation{
			Index: NoParticipant,
			Field: FieldWinningSide,
			Err:   domain.ErrInvalidSide,
		})
	}

	for i, p := range participants {
		if math.IsNaN(p.Stake) || math.IsInf(p.Stake, 0) || p.Stake < 0 {
			violations = append(violations, Violation{
				Index: i, Name: p.Name, Field: FieldStake, Value: p.Stake,
				Err: domain.ErrInvalidStake,
			})
		}
		if math.IsNaN(p.Confidence) {
			violations = append(violations, Violation{
				Index: i, Name: p.Name, Field: FieldConfidence, Value: p.Confidence,
				Err: domain.ErrInvalidConfidence,
			})
		}
		if !p.Side.Valid() {
			violations = append(violations, Violation{
				Index: i, Name: p.Name, Field: FieldSide,
				Err: domain.ErrInvalidSide,
			})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// checkTotals rejects markets whose weights or running stake and weight sums
// overflow. The violation names the participant at which the overflow first
// appears; every later sum would be infinite as well.
func checkTotals(participants []domain.Participant, weights []weighted) error {
	var stake, yesWeight, noWeight float64
	for i, p := range participants {
		stake += p.Stake
		sideWeight := &yesWeight
		if p.Side == domain.SideNo {
			sideWeight = &noWeight
		}
		*sideWeight += weights[i].weight

		if isFinite(weights[i].weight) && isFinite(stake) && isFinite(*sideWeight) {
			continue
		}
		return &ValidationError{Violations: []Violation{{
			Index: i, Name: p.Name, Field: FieldStake, Value: p.Stake,
			Err: domain.ErrAmountOverflow,
		}}}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
