package settlement

// Event sources recorded in event metadata
const (
	SourceDirect   = "direct"
	SourceAPI      = "api"
	SourceBatch    = "batch"
	SourceScenario = "scenario"
	SourceCLI      = "cli"
	SourceDiscord  = "discord"
)

// Rejection reasons reported on payout.rejected events
const (
	ReasonInvalidStake         = "invalid_stake"
	ReasonInvalidLeverageBound = "invalid_leverage_bound"
	ReasonInvalidSide          = "invalid_side"
	ReasonInvalidConfidence    = "invalid_confidence"
	ReasonLeverageAboveMaximum = "leverage_above_maximum"
	ReasonTooManyParticipants  = "too_many_participants"
	ReasonAmountOverflow       = "amount_overflow"
	ReasonOther                = "other"
)

// CacheSchemaVersion is the current version of the settlement cache entries.
// Increment this when the cached data structure changes to auto-invalidate old entries.
const CacheSchemaVersion = "1.0"

// DefaultListLimit applies when ListScenarios is called without a positive limit
const DefaultListLimit = 50

// Log messages
const (
	LogMsgComputeCalled        = "Compute called"
	LogMsgSettlementComputed   = "Settlement computed"
	LogMsgSettlementRejected   = "Settlement rejected"
	LogMsgBatchCompleted       = "Batch settlement completed"
	LogMsgScenarioSaved        = "Scenario saved"
	LogMsgScenarioDeleted      = "Scenario deleted"
	LogMsgSettlementCacheHit   = "Settlement served from cache"
	LogMsgStoredScenarioBroken = "Stored scenario no longer settles"
	LogMsgPublishFailed        = "Failed to publish settlement event"
)

// Error context strings
const (
	ErrContextFailedToStoreScenario  = "failed to store scenario"
	ErrContextFailedToLoadScenario   = "failed to load scenario"
	ErrContextFailedToListScenarios  = "failed to list scenarios"
	ErrContextFailedToDeleteScenario = "failed to delete scenario"
	ErrContextFailedToSettleScenario = "failed to settle stored scenario"
)
