package payout

const (
	// PolicyLinearV1 identifies the multiplier curve
	// multiplier = 1 + (L - 1) * (confidence / 100).
	// A different curve must ship under a new identifier.
	PolicyLinearV1 = "linear-v1"

	// Confidence is expressed on a 0..100 scale
	MinConfidence = 0.0
	MaxConfidence = 100.0

	// MinLeverageBound is the smallest accepted leverage bound. At 1 every
	// multiplier is exactly 1 and weight equals stake.
	MinLeverageBound = 1.0

	// DefaultLeverageBound matches the calculator's stock setting
	DefaultLeverageBound = 5.0
)

// Field names reported in validation violations
const (
	FieldStake         = "stake"
	FieldConfidence    = "confidence"
	FieldSide          = "side"
	FieldName          = "name"
	FieldWinningSide   = "winning_side"
	FieldLeverageBound = "leverage_bound"
	FieldParticipants  = "participants"
)

// Compact participant syntax: name:stake:confidence:side
const (
	entrySeparator  = ";"
	fieldSeparator  = ":"
	entryFieldCount = 4
)
