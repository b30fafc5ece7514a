package payout

import (
	"github.com/osse101/DCM_Go/internal/domain"
)

// distribute turns weighted participants into settled results.
// Winners receive their stake back plus a weight-proportional share of the
// losing pool. Losers forfeit their stake. When the winning side carries no
// weight every winner share is zero and the losing pool stays unclaimed.
func distribute(participants []domain.Participant, weights []weighted, winningSide domain.Side, pools domain.PoolSummary) []domain.ParticipantResult {
	results := make([]domain.ParticipantResult, len(participants))

	for i, p := range participants {
		r := domain.ParticipantResult{
			Participant: p,
			Multiplier:  weights[i].multiplier,
			Weight:      weights[i].weight,
		}

		if p.Side == winningSide {
			var share float64
			if pools.WinnerTotalWeight > 0 {
				share = r.Weight / pools.WinnerTotalWeight
			}
			r.Profit = share * pools.LosingPool
			r.Payout = p.Stake + r.Profit
		} else {
			r.Payout = 0
			r.Profit = -p.Stake
		}

		results[i] = r
	}

	return results
}
