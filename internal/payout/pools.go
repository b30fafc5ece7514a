package payout

import (
	"github.com/osse101/DCM_Go/internal/domain"
)

// aggregatePools sums stake and weight per side and derives the losing pool
// and the winning side's total weight. Empty sides produce zeros.
func aggregatePools(participants []domain.Participant, weights []weighted, winningSide domain.Side) domain.PoolSummary {
	var summary domain.PoolSummary

	for i, p := range participants {
		totals := &summary.Yes
		if p.Side == domain.SideNo {
			totals = &summary.No
		}
		totals.Participants++
		totals.TotalStake += p.Stake
		totals.TotalWeight += weights[i].weight
	}

	summary.LosingPool = summary.Totals(winningSide.Opposite()).TotalStake
	summary.WinnerTotalWeight = summary.Totals(winningSide).TotalWeight
	if summary.WinnerTotalWeight <= 0 {
		summary.Unclaimed = summary.LosingPool
	}

	return summary
}
