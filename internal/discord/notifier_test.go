package discord

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/settlement"
	"github.com/osse101/DCM_Go/internal/sse"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, embed)
	msg, _ := args.Get(0).(*discordgo.Message)
	return msg, args.Error(1)
}

func feedEvent(t *testing.T, eventType string, payload interface{}) SSEEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return SSEEvent{ID: "evt", Type: eventType, Timestamp: 1700000000, Payload: raw}
}

func TestNotifier_PayoutComputed(t *testing.T) {
	sender := new(mockSender)
	n := NewSSENotifier(sender, "chan-1")

	var sent *discordgo.MessageEmbed
	sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*discordgo.MessageEmbed) }).
		Return(&discordgo.Message{}, nil).Once()

	err := n.handlePayoutComputed(feedEvent(t, sse.EventTypePayoutComputed, sse.PayoutComputedPayload{
		ScenarioID:       "s1",
		WinningSide:      domain.SideNo,
		LeverageBound:    5,
		ParticipantCount: 3,
		WinnerCount:      1,
		LosingPool:       200,
		TotalPayout:      300,
		Source:           settlement.SourceCLI,
	}))
	require.NoError(t, err)
	sender.AssertExpectations(t)

	require.NotNil(t, sent)
	assert.Contains(t, sent.Title, "NO wins")
	assert.Equal(t, ColorNo, sent.Color)
	assert.Contains(t, sent.Description, "cli")
	assert.Equal(t, "3 (1 winners)", sent.Fields[0].Value)
	assert.Equal(t, "200.00", sent.Fields[1].Value)
	assert.Equal(t, "`s1`", sent.Fields[len(sent.Fields)-1].Value)
	assert.Equal(t, FooterFeed, sent.Footer.Text)
	assert.Equal(t, "2023-11-14T22:13:20Z", sent.Timestamp)
}

func TestNotifier_SkipsDiscordSource(t *testing.T) {
	sender := new(mockSender)
	n := NewSSENotifier(sender, "chan-1")

	err := n.handlePayoutComputed(feedEvent(t, sse.EventTypePayoutComputed, sse.PayoutComputedPayload{
		WinningSide: domain.SideYes,
		Source:      settlement.SourceDiscord,
	}))
	require.NoError(t, err)
	sender.AssertNotCalled(t, "ChannelMessageSendEmbed", mock.Anything, mock.Anything)
}

func TestNotifier_ScenarioSaved(t *testing.T) {
	sender := new(mockSender)
	n := NewSSENotifier(sender, "chan-1")

	sender.On("ChannelMessageSendEmbed", "chan-1", mock.MatchedBy(func(e *discordgo.MessageEmbed) bool {
		return e.Color == ColorInfo && e.Title == "💾 Scenario saved"
	})).Return(&discordgo.Message{}, nil).Once()

	err := n.handleScenarioSaved(feedEvent(t, sse.EventTypeScenarioSaved, sse.ScenarioSavedPayload{
		ScenarioID:       "s1",
		Name:             "weekly",
		ParticipantCount: 3,
	}))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestNotifier_Errors(t *testing.T) {
	sender := new(mockSender)
	n := NewSSENotifier(sender, "chan-1")

	err := n.handleScenarioSaved(SSEEvent{Type: sse.EventTypeScenarioSaved, Payload: json.RawMessage(`[1,2]`)})
	assert.Error(t, err)

	sender.On("ChannelMessageSendEmbed", "chan-1", mock.Anything).Return(nil, errors.New("missing access"))
	err = n.handleScenarioSaved(feedEvent(t, sse.EventTypeScenarioSaved, sse.ScenarioSavedPayload{ScenarioID: "s1"}))
	assert.ErrorContains(t, err, "missing access")
}

func TestNotifier_RegisterHandlers(t *testing.T) {
	n := NewSSENotifier(new(mockSender), "chan-1")
	client := NewSSEClient("http://unused", "", n.EventTypes())
	n.RegisterHandlers(client)

	assert.Len(t, client.handlers[sse.EventTypePayoutComputed], 1)
	assert.Len(t, client.handlers[sse.EventTypeScenarioSaved], 1)
	assert.ElementsMatch(t, []string{sse.EventTypePayoutComputed, sse.EventTypeScenarioSaved}, client.eventTypes)
}
