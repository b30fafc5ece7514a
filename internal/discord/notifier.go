package discord

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/report"
	"github.com/osse101/DCM_Go/internal/settlement"
	"github.com/osse101/DCM_Go/internal/sse"
)

// EmbedSender posts an embed to a channel. *discordgo.Session implements it.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SSENotifier relays live-feed events into a Discord channel
type SSENotifier struct {
	sender    EmbedSender
	channelID string
}

// NewSSENotifier creates a new SSE notifier
func NewSSENotifier(sender EmbedSender, channelID string) *SSENotifier {
	return &SSENotifier{sender: sender, channelID: channelID}
}

// EventTypes lists the feed events the notifier consumes
func (n *SSENotifier) EventTypes() []string {
	return []string{sse.EventTypePayoutComputed, sse.EventTypeScenarioSaved}
}

// RegisterHandlers registers all SSE event handlers with the client
func (n *SSENotifier) RegisterHandlers(client *SSEClient) {
	client.OnEvent(sse.EventTypePayoutComputed, n.handlePayoutComputed)
	client.OnEvent(sse.EventTypeScenarioSaved, n.handleScenarioSaved)
}

func (n *SSENotifier) handlePayoutComputed(event SSEEvent) error {
	var payload sse.PayoutComputedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	// Settlements requested from Discord are already shown in the reply
	if payload.Source == settlement.SourceDiscord {
		return nil
	}

	color := ColorYes
	if payload.WinningSide == domain.SideNo {
		color = ColorNo
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Participants", Value: fmt.Sprintf("%d (%d winners)", payload.ParticipantCount, payload.WinnerCount), Inline: true},
		{Name: "Losing pool", Value: report.Fixed(payload.LosingPool, report.DisplayPlaces), Inline: true},
		{Name: "Total payout", Value: report.Fixed(payload.TotalPayout, report.DisplayPlaces), Inline: true},
	}
	if payload.Unclaimed > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Unclaimed",
			Value: report.Fixed(payload.Unclaimed, report.DisplayPlaces),
		})
	}
	if payload.ScenarioID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Scenario", Value: "`" + payload.ScenarioID + "`"})
	}

	source := payload.Source
	if source == "" {
		source = settlement.SourceAPI
	}

	return n.send(event, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📊 Market settled: %s wins", payload.WinningSide),
		Description: fmt.Sprintf("Leverage bound %s, requested via %s", report.Fixed(payload.LeverageBound, report.DisplayPlaces), source),
		Color:       color,
		Fields:      fields,
	})
}

func (n *SSENotifier) handleScenarioSaved(event SSEEvent) error {
	var payload sse.ScenarioSavedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	return n.send(event, &discordgo.MessageEmbed{
		Title:       "💾 Scenario saved",
		Description: fmt.Sprintf("**%s** with %d participants\nID: `%s`", payload.Name, payload.ParticipantCount, payload.ScenarioID),
		Color:       ColorInfo,
	})
}

func (n *SSENotifier) send(event SSEEvent, embed *discordgo.MessageEmbed) error {
	embed.Footer = &discordgo.MessageEmbedFooter{Text: FooterFeed}
	if event.Timestamp > 0 {
		embed.Timestamp = time.Unix(event.Timestamp, 0).UTC().Format(time.RFC3339)
	}
	if _, err := n.sender.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		return fmt.Errorf("failed to post %s notification: %w", event.Type, err)
	}
	return nil
}
