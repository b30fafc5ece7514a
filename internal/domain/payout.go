package domain

import "time"

// Side is one of the two outcomes of a binary market
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Valid reports whether s is one of the two market outcomes
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other outcome. An invalid side is returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideYes:
		return SideNo
	case SideNo:
		return SideYes
	default:
		return s
	}
}

// Participant is one stake placed on a side, with a self-reported confidence
// in the range 0..100. Values outside that range are clamped when weighted.
type Participant struct {
	Name       string  `json:"name" validate:"max=100"`
	Stake      float64 `json:"stake"`
	Confidence float64 `json:"confidence"`
	Side       Side    `json:"side" validate:"required,side"`
}

// ParticipantResult is the settled view of a participant
type ParticipantResult struct {
	Participant
	Multiplier float64 `json:"multiplier"`
	Weight     float64 `json:"weight"`
	Payout     float64 `json:"payout"`
	Profit     float64 `json:"profit"`
}

// IsWinner reports whether the result was on the winning side
func (r ParticipantResult) IsWinner(winningSide Side) bool {
	return r.Side == winningSide
}

// SideTotals aggregates stake and weight for one side of the market
type SideTotals struct {
	Participants int     `json:"participants"`
	TotalStake   float64 `json:"total_stake"`
	TotalWeight  float64 `json:"total_weight"`
}

// PoolSummary is the aggregated state of both sides once a winner is known.
// Unclaimed is the part of the losing pool that no winner could absorb, which
// only happens when the winning side carries zero weight.
type PoolSummary struct {
	Yes               SideTotals `json:"yes"`
	No                SideTotals `json:"no"`
	LosingPool        float64    `json:"losing_pool"`
	WinnerTotalWeight float64    `json:"winner_total_weight"`
	Unclaimed         float64    `json:"unclaimed"`
}

// Totals returns the aggregate for the given side
func (p PoolSummary) Totals(side Side) SideTotals {
	if side == SideNo {
		return p.No
	}
	return p.Yes
}

// Settlement is the full output of a payout computation
type Settlement struct {
	WinningSide   Side                `json:"winning_side"`
	LeverageBound float64             `json:"leverage_bound"`
	Policy        string              `json:"policy"`
	Results       []ParticipantResult `json:"results"`
	Pools         PoolSummary         `json:"pools"`
}

// TotalPayout sums the payouts of every participant
func (s *Settlement) TotalPayout() float64 {
	var total float64
	for _, r := range s.Results {
		total += r.Payout
	}
	return total
}

// ComputeRequest is the input of a single settlement. LeverageBound is optional;
// the configured default applies when it is absent. Numeric ranges are checked
// by the payout engine, not by struct tags.
type ComputeRequest struct {
	Participants  []Participant `json:"participants" validate:"dive"`
	WinningSide   Side          `json:"winning_side" validate:"required,side"`
	LeverageBound *float64      `json:"leverage_bound,omitempty"`
}

// BatchComputeRequest settles several independent markets in one call
type BatchComputeRequest struct {
	Markets []ComputeRequest `json:"markets" validate:"required,min=1,max=100,dive"`
}

// BatchItemResult holds the outcome of one market in a batch, in request order
type BatchItemResult struct {
	Index      int         `json:"index"`
	Settlement *Settlement `json:"settlement,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ScenarioRequest saves a named market for later recall
type ScenarioRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	ComputeRequest
}

// Scenario is a stored market input. Settlements are derived from it on read.
type Scenario struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Participants  []Participant `json:"participants"`
	WinningSide   Side          `json:"winning_side"`
	LeverageBound float64       `json:"leverage_bound"`
	Policy        string        `json:"policy"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ScenarioView is a stored scenario together with its settlement
type ScenarioView struct {
	Scenario
	Settlement *Settlement `json:"settlement"`
}
