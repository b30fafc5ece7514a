package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/payout"
	"github.com/osse101/DCM_Go/internal/report"
)

// PayoutCommand returns the payout command definition and handler
func PayoutCommand() (*discordgo.ApplicationCommand, CommandHandler) {
	minLeverage := 1.0

	cmd := &discordgo.ApplicationCommand{
		Name:        CommandPayout,
		Description: "Settle a YES/NO market and share the losing pool among winners",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionParticipants,
				Description: "name:stake:confidence:side entries separated by ';'",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionWinner,
				Description: "Winning side",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "YES", Value: string(domain.SideYes)},
					{Name: "NO", Value: string(domain.SideNo)},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        OptionLeverage,
				Description: "Leverage bound (default set by the API)",
				Required:    false,
				MinValue:    &minLeverage,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionSave,
				Description: "Store the market as a named scenario",
				Required:    false,
				MaxLength:   100,
			},
		},
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient) {
		if !deferResponse(s, i) {
			return
		}

		req, name, err := payoutRequest(getOptions(i))
		if err != nil {
			respondFriendlyError(s, i, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultAPITimeout*2)
		defer cancel()

		user := getInteractionUser(i)
		var embed *discordgo.MessageEmbed
		if name != "" {
			result, err := client.SaveScenario(ctx, &domain.ScenarioRequest{Name: name, ComputeRequest: *req})
			if err != nil {
				slog.Error("Failed to save scenario", "user", user.Username, "error", err)
				respondFriendlyError(s, i, err)
				return
			}
			embed = settlementEmbed(result.Settlement)
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "Saved as",
				Value:  fmt.Sprintf("**%s** (`%s`)", result.Name, result.ID),
				Inline: false,
			})
		} else {
			result, err := client.Compute(ctx, req)
			if err != nil {
				slog.Error("Failed to compute payouts", "user", user.Username, "error", err)
				respondFriendlyError(s, i, err)
				return
			}
			embed = settlementEmbed(&result.Settlement)
		}

		sendEmbed(s, i, embed)
	}

	return cmd, handler
}

// payoutRequest reads the command options into a compute request and an
// optional scenario name. Participants are parsed locally so a malformed list
// never reaches the API.
func payoutRequest(options []*discordgo.ApplicationCommandInteractionDataOption) (*domain.ComputeRequest, string, error) {
	opts := optionMap(options)

	rawParticipants, ok := opts[OptionParticipants]
	if !ok {
		return nil, "", fmt.Errorf("%w: missing %s", domain.ErrInvalidParticipantRow, OptionParticipants)
	}
	participants, err := payout.ParseParticipants(rawParticipants.StringValue())
	if err != nil {
		return nil, "", err
	}

	rawWinner, ok := opts[OptionWinner]
	if !ok {
		return nil, "", fmt.Errorf("%w: missing %s", domain.ErrInvalidSide, OptionWinner)
	}
	winner, err := payout.ParseSide(rawWinner.StringValue())
	if err != nil {
		return nil, "", err
	}

	req := &domain.ComputeRequest{Participants: participants, WinningSide: winner}
	if opt, ok := opts[OptionLeverage]; ok {
		leverage := opt.FloatValue()
		req.LeverageBound = &leverage
	}

	var name string
	if opt, ok := opts[OptionSave]; ok {
		name = strings.TrimSpace(opt.StringValue())
	}
	return req, name, nil
}

// settlementEmbed renders a settlement as a table inside an embed
func settlementEmbed(s *domain.Settlement) *discordgo.MessageEmbed {
	color := ColorYes
	if s.WinningSide == domain.SideNo {
		color = ColorNo
	}

	summary := report.Summarize(s)
	fields := []*discordgo.MessageEmbedField{
		{Name: "Losing pool", Value: report.Fixed(summary.LosingPool, report.DisplayPlaces), Inline: true},
		{Name: "Total payout", Value: report.Fixed(summary.TotalPayout, report.DisplayPlaces), Inline: true},
		{Name: "Winners", Value: fmt.Sprintf("%d of %d", summary.Winners, summary.Participants), Inline: true},
	}
	if summary.Unclaimed > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Unclaimed",
			Value: report.Fixed(summary.Unclaimed, report.DisplayPlaces) + " (no weight on the winning side)",
		})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s wins", cases.Title(language.English).String(strings.ToLower(string(s.WinningSide)))),
		Description: codeBlock(report.FormatTable(s), MaxEmbedDescription),
		Color:       color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterEngine},
	}
}
