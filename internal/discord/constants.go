package discord

import "time"

// Embed colors
const (
	ColorYes     = 0x2ecc71 // Green
	ColorNo      = 0xe74c3c // Red
	ColorInfo    = 0x3498db // Blue
	ColorNeutral = 0x95a5a6 // Gray
)

// Footer constants for standardized embed footers
const (
	FooterEngine = "DCM Settlement"
	FooterFeed   = "DCM Live Feed"
)

// Discord message limits
const (
	MaxEmbedDescription = 4096
	MaxEmbedFieldValue  = 1024
	TruncationMarker    = "\n…"
)

// Command and option names
const (
	CommandPing     = "ping"
	CommandPayout   = "payout"
	CommandScenario = "scenario"

	OptionParticipants = "participants"
	OptionWinner       = "winner"
	OptionLeverage     = "leverage"
	OptionSave         = "save"
	OptionID           = "id"
	OptionLimit        = "limit"

	SubcommandShow = "show"
	SubcommandList = "list"
)

// API client settings
const (
	DefaultAPITimeout   = 10 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 500 * time.Millisecond
	DefaultScenarioList = 10
	HealthCheckTimeout  = 2 * time.Second
)

// SSE client configuration
const (
	// sseInitialBackoff is the initial backoff duration for reconnection
	sseInitialBackoff = 1 * time.Second

	// sseMaxBackoff is the maximum backoff duration for reconnection
	sseMaxBackoff = 30 * time.Second

	// sseBackoffMultiplier is the multiplier for exponential backoff
	sseBackoffMultiplier = 2.0

	// sseBufferSize is the buffer size for reading SSE events
	sseBufferSize = 64 * 1024
)

// SSE log messages
const (
	sseLogMsgClientConnected  = "SSE client connected"
	sseLogMsgClientStopped    = "SSE client stopped"
	sseLogMsgConnectionFailed = "SSE connection failed, retrying"
	sseLogMsgParseError       = "Failed to parse SSE event"
	sseLogMsgHandlerError     = "SSE event handler failed"
)

// Request headers understood by the settlement API
const (
	headerAPIKey       = "X-API-Key"
	headerClientSource = "X-Client-Source"
)
