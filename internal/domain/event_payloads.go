package domain

// PayoutComputedPayloadV1 is the event payload for payout.computed events
type PayoutComputedPayloadV1 struct {
	ScenarioID        string  `json:"scenario_id,omitempty"`
	WinningSide       Side    `json:"winning_side"`
	LeverageBound     float64 `json:"leverage_bound"`
	Policy            string  `json:"policy"`
	ParticipantCount  int     `json:"participant_count"`
	WinnerCount       int     `json:"winner_count"`
	LosingPool        float64 `json:"losing_pool"`
	WinnerTotalWeight float64 `json:"winner_total_weight"`
	Unclaimed         float64 `json:"unclaimed"`
	TotalPayout       float64 `json:"total_payout"`
	Timestamp         int64   `json:"timestamp"`
}

// PayoutRejectedPayloadV1 is the event payload for payout.rejected events
type PayoutRejectedPayloadV1 struct {
	Reason           string `json:"reason"`
	ParticipantCount int    `json:"participant_count"`
	Timestamp        int64  `json:"timestamp"`
}

// ScenarioSavedPayloadV1 is the event payload for scenario.saved events
type ScenarioSavedPayloadV1 struct {
	ScenarioID       string `json:"scenario_id"`
	Name             string `json:"name"`
	ParticipantCount int    `json:"participant_count"`
	Timestamp        int64  `json:"timestamp"`
}

// ScenarioDeletedPayloadV1 is the event payload for scenario.deleted events
type ScenarioDeletedPayloadV1 struct {
	ScenarioID string `json:"scenario_id"`
	Timestamp  int64  `json:"timestamp"`
}
