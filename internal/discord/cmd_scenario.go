package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ScenarioCommand returns the scenario command with show and list subcommands
func ScenarioCommand() (*discordgo.ApplicationCommand, CommandHandler) {
	minLimit := 1.0

	cmd := &discordgo.ApplicationCommand{
		Name:        CommandScenario,
		Description: "Browse stored scenarios",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandShow,
				Description: "Show a stored scenario with its settlement",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptionID,
						Description: "Scenario ID",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandList,
				Description: "List the newest scenarios",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        OptionLimit,
						Description: "How many to list (default 10)",
						Required:    false,
						MinValue:    &minLimit,
						MaxValue:    50,
					},
				},
			},
		},
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient) {
		options := getOptions(i)
		if len(options) == 0 {
			return
		}
		sub := options[0]

		if !deferResponse(s, i) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultAPITimeout*2)
		defer cancel()

		switch sub.Name {
		case SubcommandShow:
			handleScenarioShow(ctx, s, i, client, optionMap(sub.Options))
		case SubcommandList:
			handleScenarioList(ctx, s, i, client, optionMap(sub.Options))
		default:
			respondError(s, i, MsgGenericError)
		}
	}

	return cmd, handler
}

func handleScenarioShow(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	idOpt, ok := opts[OptionID]
	if !ok {
		respondError(s, i, MsgScenarioNotFound)
		return
	}

	result, err := client.GetScenario(ctx, strings.TrimSpace(idOpt.StringValue()))
	if err != nil {
		slog.Error("Failed to load scenario", "id", idOpt.StringValue(), "error", err)
		respondFriendlyError(s, i, err)
		return
	}

	embed := settlementEmbed(result.Settlement)
	embed.Title = fmt.Sprintf("%s: %s", result.Name, embed.Title)
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Scenario",
		Value: fmt.Sprintf("`%s` saved %s", result.ID, result.CreatedAt.UTC().Format(time.DateTime)),
	})
	sendEmbed(s, i, embed)
}

func handleScenarioList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, client *APIClient,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	limit := DefaultScenarioList
	if opt, ok := opts[OptionLimit]; ok {
		limit = int(opt.IntValue())
	}

	scenarios, err := client.ListScenarios(ctx, limit)
	if err != nil {
		slog.Error("Failed to list scenarios", "error", err)
		respondFriendlyError(s, i, err)
		return
	}

	description := MsgNoScenarios
	if len(scenarios) > 0 {
		var b strings.Builder
		for _, sc := range scenarios {
			fmt.Fprintf(&b, "`%s` **%s** · %d participants · %s wins\n",
				sc.ID, sc.Name, len(sc.Participants), sc.WinningSide)
		}
		description = truncate(b.String(), MaxEmbedDescription)
	}

	sendEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Stored scenarios",
		Description: description,
		Color:       ColorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterEngine},
	})
}
