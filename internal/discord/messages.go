package discord

// Friendly message constants for Discord responses
const (
	MsgInvalidMarket      = "⚠️ **Market rejected**"
	MsgBadParticipantList = "⚠️ **Could not read participants**\nUse `name:stake:confidence:side` entries separated by `;`, e.g. `A:100:80:YES; B:50:20:NO`."
	MsgScenarioNotFound   = "❓ **Scenario Not Found**\nCheck the ID with `/scenario list`."
	MsgUnauthorized       = "🔒 **Bot is not authorized**\nThe API key configured for the bot was rejected."
	MsgAPIUnavailable     = "⏳ **Settlement API unavailable**\nPlease try again in a moment."
	MsgNoScenarios        = "No scenarios saved yet."

	MsgGenericError = "❌ Something went wrong."
)
