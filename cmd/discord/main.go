package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/osse101/DCM_Go/internal/config"
	"github.com/osse101/DCM_Go/internal/discord"
	"github.com/osse101/DCM_Go/internal/logger"
)

// Default values for optional configuration
const (
	DefaultHealthPort = "8082"
	DefaultAPIURL     = "http://localhost:8080"
)

// CommandFactory creates a Discord command and its handler
type CommandFactory func() (*discordgo.ApplicationCommand, discord.CommandHandler)

func main() {
	_ = godotenv.Load()

	logger.InitLogger(logger.NewConfig(
		getEnv("LOG_LEVEL", logger.LogLevelInfo),
		getEnv("LOG_FORMAT", logger.LogFormatText),
		"dcm-discord",
		getEnv("VERSION", "dev"),
		getEnv("ENVIRONMENT", "dev"),
		false,
	))

	if err := config.ValidateDiscordEnv(); err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}
	cfg := loadConfig()

	bot, err := discord.New(cfg)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live feed is optional
	var feed *discord.SSEClient
	if cfg.NotificationChannelID != "" {
		notifier := discord.NewSSENotifier(bot.Session, cfg.NotificationChannelID)
		feed = discord.NewSSEClient(cfg.APIURL, cfg.APIKey, notifier.EventTypes())
		notifier.RegisterHandlers(feed)
		feed.Start(ctx)
		defer feed.Stop()
		slog.Info("SSE notifications enabled", "channel_id", cfg.NotificationChannelID)
	}

	httpServer := discord.NewHTTPServer(cfg.HealthPort, bot, feed)
	httpServer.Start()
	defer httpServer.Stop()

	registerCommands(bot, getCommandFactories())

	forceUpdate := os.Getenv("DISCORD_FORCE_COMMAND_UPDATE") == "true"
	if forceUpdate {
		slog.Info("Force command update enabled via environment variable")
	}
	if err := bot.RegisterCommands(bot.Registry, forceUpdate); err != nil {
		slog.Error("Failed to register commands", "error", err)
		// Don't exit - bot can still run if commands are already registered
	}

	if err := bot.Run(ctx); err != nil {
		slog.Error("Bot failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Discord bot stopped")
}

// loadConfig reads the bot configuration; required variables are checked by
// config.ValidateDiscordEnv beforehand
func loadConfig() discord.Config {
	apiURL := getEnv("API_URL", DefaultAPIURL)
	slog.Info("Configured API URL", "url", apiURL)

	return discord.Config{
		Token:                 os.Getenv("DISCORD_TOKEN"),
		AppID:                 os.Getenv("DISCORD_APP_ID"),
		APIURL:                apiURL,
		APIKey:                os.Getenv("API_KEY"),
		NotificationChannelID: os.Getenv("DISCORD_NOTIFICATION_CHANNEL_ID"),
		HealthPort:            getEnv("DISCORD_HEALTH_PORT", DefaultHealthPort),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getCommandFactories returns every slash command the bot serves
func getCommandFactories() []CommandFactory {
	return []CommandFactory{
		discord.PingCommand,
		discord.PayoutCommand,
		discord.ScenarioCommand,
	}
}

func registerCommands(bot *discord.Bot, factories []CommandFactory) {
	for _, factory := range factories {
		cmd, handler := factory()
		bot.Registry.Register(cmd, handler)
	}
}
