package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Bot represents the Discord bot
type Bot struct {
	Session  *discordgo.Session
	Client   *APIClient
	AppID    string
	Registry *CommandRegistry
}

// Config holds the bot configuration
type Config struct {
	Token                 string
	AppID                 string
	APIURL                string
	APIKey                string
	NotificationChannelID string // empty disables the live feed
	HealthPort            string
}

// New creates a new Discord bot
func New(cfg Config) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	return &Bot{
		Session:  s,
		Client:   NewAPIClient(cfg.APIURL, cfg.APIKey),
		AppID:    cfg.AppID,
		Registry: NewCommandRegistry(),
	}, nil
}

// Start opens the gateway connection
func (b *Bot) Start() error {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.interactionCreate)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	slog.Info("Discord bot is now running")
	return nil
}

// Stop closes the gateway connection
func (b *Bot) Stop() {
	if err := b.Session.Close(); err != nil {
		slog.Warn("Error closing Discord session", "error", err)
	}
}

// Run runs the bot until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()

	<-ctx.Done()
	return nil
}

// Connected reports whether the gateway session is ready
func (b *Bot) Connected() bool {
	return b.Session != nil && b.Session.DataReady
}

func (b *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Bot is ready", "user", r.User.Username)
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.Registry != nil {
		b.Registry.Handle(s, i, b.Client)
	}
}
