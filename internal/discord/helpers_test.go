package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/osse101/DCM_Go/internal/database/memory"
	"github.com/osse101/DCM_Go/internal/server"
	"github.com/osse101/DCM_Go/internal/settlement"
)

const testAPIKey = "test-api-key"

// MockRoundTripper implements http.RoundTripper for intercepting requests
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

// TestContext wires a Discord session with intercepted HTTP calls to an
// API client pointed at a test backend
type TestContext struct {
	Server    *httptest.Server
	APIClient *APIClient
	Session   *discordgo.Session

	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
}

// SetupTestContext serves the real settlement API over a memory repository
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	svc := settlement.NewService(memory.NewScenarioRepository(), nil, settlement.Config{
		DefaultLeverageBound: 5,
		MaxLeverageBound:     100,
		MaxParticipants:      10,
		BatchConcurrency:     2,
		CacheSize:            8,
		CacheTTL:             time.Minute,
	})
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	api := server.NewServer(server.Config{APIKey: testAPIKey}, svc, nil)
	return setupWithBackend(t, api.Handler())
}

// setupWithBackend uses a custom API handler
func setupWithBackend(t *testing.T, backend http.Handler) *TestContext {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := NewAPIClient(srv.URL, testAPIKey)
	client.RetryDelay = time.Millisecond

	session, err := discordgo.New("Bot test-token")
	require.NoError(t, err)

	tc := &TestContext{Server: srv, APIClient: client, Session: session}
	session.Client = &http.Client{Transport: &MockRoundTripper{RoundTripFunc: tc.captureDiscord}}
	return tc
}

func (tc *TestContext) captureDiscord(req *http.Request) (*http.Response, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		switch {
		case req.Method == http.MethodPost && strings.Contains(req.URL.Path, "/callback"):
			var resp discordgo.InteractionResponse
			if json.Unmarshal(body, &resp) == nil {
				tc.responses = append(tc.responses, &resp)
			}
		case req.Method == http.MethodPatch:
			var edit discordgo.WebhookEdit
			if json.Unmarshal(body, &edit) == nil {
				tc.edits = append(tc.edits, &edit)
			}
		}
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString("{}")),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

// lastEdit returns the final edit of the deferred response
func (tc *TestContext) lastEdit(t *testing.T) *discordgo.WebhookEdit {
	t.Helper()
	tc.mu.Lock()
	defer tc.mu.Unlock()
	require.NotEmpty(t, tc.edits, "no interaction response edit captured")
	return tc.edits[len(tc.edits)-1]
}

func (tc *TestContext) lastEmbed(t *testing.T) *discordgo.MessageEmbed {
	t.Helper()
	edit := tc.lastEdit(t)
	require.NotNil(t, edit.Embeds)
	require.NotEmpty(t, *edit.Embeds)
	return (*edit.Embeds)[0]
}

func (tc *TestContext) lastContent(t *testing.T) string {
	t.Helper()
	edit := tc.lastEdit(t)
	require.NotNil(t, edit.Content)
	return *edit.Content
}

func createTestInteraction(commandName string, options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:    "interaction-id",
			AppID: "app-id",
			Token: "interaction-token",
			Type:  discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    commandName,
				Options: options,
			},
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "test-user", Username: "Tester"},
			},
		},
	}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func numberOption(name string, value float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionNumber,
		Value: value,
	}
}

func intOption(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func subcommand(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	}
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
