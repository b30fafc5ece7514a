package discord

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthStatus represents the bot's health status
type HealthStatus struct {
	Status           string     `json:"status"`
	Uptime           string     `json:"uptime"`
	Connected        bool       `json:"connected"`
	FeedConnected    bool       `json:"feed_connected"`
	CommandsReceived int64      `json:"commands_received"`
	LastCommandTime  *time.Time `json:"last_command_time,omitempty"`
	APIReachable     bool       `json:"api_reachable"`
}

var (
	startTime       = time.Now()
	commandCounter  atomic.Int64
	lastCommandNano atomic.Int64
)

// RecordCommand increments the command counter
func RecordCommand() {
	commandCounter.Add(1)
	lastCommandNano.Store(time.Now().UnixNano())
}

// HandleHealth reports gateway, feed and API reachability. The live feed is
// optional and does not degrade the status.
func (h *HTTPServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	connected := h.bot.Connected()

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()
	apiReachable := h.bot.Client != nil && h.bot.Client.Healthz(ctx) == nil

	health := HealthStatus{
		Status:           "healthy",
		Uptime:           time.Since(startTime).Round(time.Second).String(),
		Connected:        connected,
		FeedConnected:    h.feed != nil && h.feed.IsConnected(),
		CommandsReceived: commandCounter.Load(),
		APIReachable:     apiReachable,
	}
	if nano := lastCommandNano.Load(); nano > 0 {
		last := time.Unix(0, nano).UTC()
		health.LastCommandTime = &last
	}

	status := http.StatusOK
	if !connected || !apiReachable {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		slog.Debug("Failed to write health response", "error", err)
	}
}
