package domain

// Event type constants used across the application for event bus subscriptions
// and metrics tracking.
//
// Event types follow the pattern: <entity>.<action> (e.g., "payout.computed")
const (
	// EventTypePayoutComputed is published after every successful settlement
	EventTypePayoutComputed = "payout.computed"

	// EventTypePayoutRejected is published when the engine rejects an input
	EventTypePayoutRejected = "payout.rejected"

	// EventTypeScenarioSaved is published when a scenario is persisted
	EventTypeScenarioSaved = "scenario.saved"

	// EventTypeScenarioDeleted is published when a scenario is removed
	EventTypeScenarioDeleted = "scenario.deleted"
)
