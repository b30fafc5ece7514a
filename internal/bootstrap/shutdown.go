package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/DCM_Go/internal/event"
	"github.com/osse101/DCM_Go/internal/server"
	"github.com/osse101/DCM_Go/internal/settlement"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Settlement         settlement.Service
	ResilientPublisher *event.ResilientPublisher
	Storage            *Storage
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Settlement service (wait for queued event publishes)
// 3. Event publisher (flush retries to the bus or the dead-letter file)
// 4. Storage
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.Settlement != nil {
		if err := components.Settlement.Shutdown(ctx); err != nil {
			slog.Error(LogMsgSettlementShutdownFailed, "error", err)
		}
	}

	if components.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if components.Storage != nil {
		components.Storage.Close()
	}

	slog.Info(LogMsgServerStopped)
}
