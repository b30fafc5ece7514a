package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgInvalidLimit          = "Invalid limit parameter"
	ErrMsgMissingScenarioID     = "Missing scenario id"
)

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError      = "Something went wrong"
	ErrMsgUnknownError            = "Unknown error"
	ErrMsgInvalidRequestError     = "Invalid request. Please check your inputs."
	ErrMsgScenarioNotFoundError   = "Scenario not found"
	ErrMsgUnavailableError        = "Server is temporarily unavailable. Please try again later."
	ErrMsgRequestCancelledError   = "Request cancelled"
	ErrMsgStoredScenarioBrokenErr = "Stored scenario can no longer be settled"
)

// Success messages for API responses
const (
	MsgScenarioDeleted = "Scenario deleted"
)

// Field messages used in validation responses
const (
	FieldMsgRequired    = "This field is required"
	FieldMsgSide        = "Must be YES or NO"
	FieldMsgMaxChars    = "Must be at most %s characters"
	FieldMsgMinChars    = "Must be at least %s characters"
	FieldMsgMaxItems    = "Must contain at most %s items"
	FieldMsgMinItems    = "Must contain at least %s items"
	FieldMsgInvalid     = "Invalid value"
	FieldMsgBadFormat   = "Invalid request format"
	FieldKeyFormatError = "error"
)
