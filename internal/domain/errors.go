package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Engine validation errors
	ErrMsgInvalidStake          = "invalid stake"
	ErrMsgInvalidLeverageBound  = "invalid leverage bound"
	ErrMsgInvalidSide           = "invalid side"
	ErrMsgInvalidConfidence     = "invalid confidence"
	ErrMsgLeverageAboveMaximum  = "leverage bound above maximum"
	ErrMsgTooManyParticipants   = "too many participants"
	ErrMsgInvalidParticipantRow = "invalid participant entry"
	ErrMsgAmountOverflow        = "amount out of range"

	// Scenario errors
	ErrMsgScenarioNotFound      = "scenario not found"
	ErrMsgStoredScenarioInvalid = "stored scenario no longer settles"

	// Database/System errors
	ErrMsgConnectionTimeout = "connection timeout"
	ErrMsgDatabaseError     = "database error"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Engine validation errors
	ErrInvalidStake          = errors.New(ErrMsgInvalidStake)
	ErrInvalidLeverageBound  = errors.New(ErrMsgInvalidLeverageBound)
	ErrInvalidSide           = errors.New(ErrMsgInvalidSide)
	ErrInvalidConfidence     = errors.New(ErrMsgInvalidConfidence)
	ErrLeverageAboveMaximum  = errors.New(ErrMsgLeverageAboveMaximum)
	ErrTooManyParticipants   = errors.New(ErrMsgTooManyParticipants)
	ErrInvalidParticipantRow = errors.New(ErrMsgInvalidParticipantRow)
	ErrAmountOverflow        = errors.New(ErrMsgAmountOverflow)

	// Scenario errors
	ErrScenarioNotFound      = errors.New(ErrMsgScenarioNotFound)
	ErrStoredScenarioInvalid = errors.New(ErrMsgStoredScenarioInvalid)

	// System errors
	ErrDatabaseError = errors.New(ErrMsgDatabaseError)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
