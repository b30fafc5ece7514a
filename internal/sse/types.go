package sse

import "github.com/osse101/DCM_Go/internal/domain"

// PayoutComputedPayload is the live-feed view of a settlement
type PayoutComputedPayload struct {
	ScenarioID       string      `json:"scenario_id,omitempty"`
	WinningSide      domain.Side `json:"winning_side"`
	LeverageBound    float64     `json:"leverage_bound"`
	ParticipantCount int         `json:"participant_count"`
	WinnerCount      int         `json:"winner_count"`
	LosingPool       float64     `json:"losing_pool"`
	TotalPayout      float64     `json:"total_payout"`
	Unclaimed        float64     `json:"unclaimed,omitempty"`
	Source           string      `json:"source,omitempty"` // api, batch, discord
}

// ScenarioSavedPayload announces a newly stored scenario
type ScenarioSavedPayload struct {
	ScenarioID       string `json:"scenario_id"`
	Name             string `json:"name"`
	ParticipantCount int    `json:"participant_count"`
}
