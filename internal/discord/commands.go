package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/osse101/DCM_Go/internal/domain"
)

// CommandHandler handles a slash command
type CommandHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient)

// CommandRegistry holds the registered commands
type CommandRegistry struct {
	Commands map[string]*discordgo.ApplicationCommand
	Handlers map[string]CommandHandler
}

// NewCommandRegistry creates a new registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		Commands: make(map[string]*discordgo.ApplicationCommand),
		Handlers: make(map[string]CommandHandler),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(cmd *discordgo.ApplicationCommand, handler CommandHandler) {
	r.Commands[cmd.Name] = cmd
	r.Handlers[cmd.Name] = handler
}

// Handle dispatches an application command interaction to its handler
func (r *CommandRegistry) Handle(s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if h, ok := r.Handlers[i.ApplicationCommandData().Name]; ok {
		RecordCommand()
		h(s, i, client)
	}
}

// RegisterCommands registers or updates commands with Discord.
// Only performs updates if commands have changed to avoid rate limits.
func (b *Bot) RegisterCommands(registry *CommandRegistry, forceUpdate bool) error {
	slog.Info("Checking Discord commands...")

	existingCmds, err := b.Session.ApplicationCommands(b.AppID, "")
	if err != nil {
		return fmt.Errorf("failed to fetch existing commands: %w", err)
	}

	desiredCmds := make([]*discordgo.ApplicationCommand, 0, len(registry.Commands))
	for _, cmd := range registry.Commands {
		desiredCmds = append(desiredCmds, cmd)
	}

	if !forceUpdate && commandsEqual(existingCmds, desiredCmds) {
		slog.Info("Commands unchanged, skipping registration", "count", len(existingCmds))
		return nil
	}

	slog.Info("Updating commands",
		"force", forceUpdate,
		"existing", len(existingCmds),
		"desired", len(desiredCmds))

	if _, err := b.Session.ApplicationCommandBulkOverwrite(b.AppID, "", desiredCmds); err != nil {
		return fmt.Errorf("failed to update commands: %w", err)
	}

	slog.Info("Commands updated successfully", "count", len(desiredCmds))
	return nil
}

// commandsEqual checks if two command sets are equivalent
func commandsEqual(existing, desired []*discordgo.ApplicationCommand) bool {
	if len(existing) != len(desired) {
		return false
	}

	existingMap := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		existingMap[cmd.Name] = cmd
	}

	for _, d := range desired {
		e, ok := existingMap[d.Name]
		if !ok || !commandEqual(e, d) {
			return false
		}
	}
	return true
}

func commandEqual(a, b *discordgo.ApplicationCommand) bool {
	if a.Name != b.Name || a.Description != b.Description {
		return false
	}
	return optionsEqual(a.Options, b.Options)
}

// optionsEqual compares option trees, including subcommand options
func optionsEqual(a, b []*discordgo.ApplicationCommandOption) bool {
	return slices.EqualFunc(a, b, func(x, y *discordgo.ApplicationCommandOption) bool {
		if x.Type != y.Type || x.Name != y.Name || x.Description != y.Description || x.Required != y.Required {
			return false
		}
		choicesEqual := slices.EqualFunc(x.Choices, y.Choices, func(c, d *discordgo.ApplicationCommandOptionChoice) bool {
			return c.Name == d.Name && fmt.Sprint(c.Value) == fmt.Sprint(d.Value)
		})
		return choicesEqual && optionsEqual(x.Options, y.Options)
	})
}

// deferResponse acknowledges an interaction with a deferred message.
// Returns false if deferral failed; the handler should return early.
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Error("Failed to send deferred response", "error", err)
		return false
	}
	return true
}

// respondError edits the deferred response with a plain message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &message,
	}); err != nil {
		slog.Error("Failed to edit interaction response", "error", err)
	}
}

// respondFriendlyError turns an API or transport error into a readable reply
func respondFriendlyError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	respondError(s, i, formatFriendlyError(err))
}

// formatFriendlyError maps API errors onto user-facing messages. Validation
// failures list each rejected field so the user can fix the input.
func formatFriendlyError(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		if errors.Is(err, domain.ErrInvalidParticipantRow) || errors.Is(err, domain.ErrInvalidSide) {
			return fmt.Sprintf("%s\n`%s`", MsgBadParticipantList, err.Error())
		}
		return MsgAPIUnavailable
	}

	switch apiErr.Status {
	case http.StatusBadRequest:
		if len(apiErr.Fields) == 0 {
			return fmt.Sprintf("%s\n%s", MsgInvalidMarket, apiErr.Message)
		}
		paths := make([]string, 0, len(apiErr.Fields))
		for path := range apiErr.Fields {
			paths = append(paths, path)
		}
		slices.Sort(paths)

		var b strings.Builder
		b.WriteString(MsgInvalidMarket)
		for _, path := range paths {
			fmt.Fprintf(&b, "\n• `%s`: %s", path, apiErr.Fields[path])
		}
		return truncate(b.String(), MaxEmbedDescription)
	case http.StatusNotFound:
		return MsgScenarioNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return MsgUnauthorized
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return MsgAPIUnavailable
	default:
		return MsgGenericError
	}
}

// sendEmbed edits the deferred response with a single embed
func sendEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		slog.Error("Failed to send response", "error", err)
	}
}

// getOptions extracts command options from an interaction
func getOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	return i.ApplicationCommandData().Options
}

// optionMap indexes options by name
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// getInteractionUser extracts the user from an interaction.
// Handles both guild (i.Member.User) and DM (i.User) contexts.
func getInteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{}
}

// truncate cuts s to at most limit runes, marking the cut
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	marker := []rune(TruncationMarker)
	return string(runes[:limit-len(marker)]) + TruncationMarker
}

// codeBlock wraps text in a fenced block that fits an embed description
func codeBlock(text string, limit int) string {
	const fence = "```"
	body := truncate(text, limit-2*len(fence)-2)
	return fence + "\n" + body + fence
}
