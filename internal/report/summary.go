// Package report turns settlements into human-facing output: summary
// statistics, a fixed-width text table and an XLSX workbook.
package report

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/osse101/DCM_Go/internal/domain"
)

// Distribution describes a set of per-winner values
type Distribution struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Summary condenses a settlement for dashboards and chat replies
type Summary struct {
	WinningSide   domain.Side  `json:"winning_side"`
	Participants  int          `json:"participants"`
	Winners       int          `json:"winners"`
	Losers        int          `json:"losers"`
	TotalStake    float64      `json:"total_stake"`
	LosingPool    float64      `json:"losing_pool"`
	TotalPayout   float64      `json:"total_payout"`
	Unclaimed     float64      `json:"unclaimed"`
	WinnerProfit  Distribution `json:"winner_profit"`
	WinnerReturns Distribution `json:"winner_returns"` // profit / stake, winners with stake only
}

// Summarize computes totals and winner distributions for s
func Summarize(s *domain.Settlement) Summary {
	sum := Summary{
		WinningSide:  s.WinningSide,
		Participants: len(s.Results),
		LosingPool:   s.Pools.LosingPool,
		Unclaimed:    s.Pools.Unclaimed,
		TotalStake:   s.Pools.Yes.TotalStake + s.Pools.No.TotalStake,
		TotalPayout:  s.TotalPayout(),
	}

	var profits, returns stats.Float64Data
	for _, r := range s.Results {
		if !r.IsWinner(s.WinningSide) {
			sum.Losers++
			continue
		}
		sum.Winners++
		profits = append(profits, r.Profit)
		if r.Stake > 0 {
			returns = append(returns, r.Profit/r.Stake)
		}
	}

	sum.WinnerProfit = describe(profits)
	sum.WinnerReturns = describe(returns)
	return sum
}

// describe returns the zero Distribution for empty input
func describe(data stats.Float64Data) Distribution {
	if len(data) == 0 {
		return Distribution{}
	}
	d := Distribution{Count: len(data)}
	// stats only errors on empty input, which is handled above
	d.Min, _ = stats.Min(data)
	d.Max, _ = stats.Max(data)
	d.Mean, _ = stats.Mean(data)
	d.Median, _ = stats.Median(data)
	return d
}

// Round rounds v half away from zero to the given decimal places using
// decimal arithmetic, so 2.675 becomes 2.68 rather than 2.67.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Fixed renders v with exactly places decimals
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
