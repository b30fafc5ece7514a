package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/DCM_Go/internal/config"
	"github.com/osse101/DCM_Go/internal/event"
)

// InitializeEventSystem creates the in-process bus and the resilient publisher
// in front of it. Services publish through the returned publisher; subscribers
// attach to either, both reach the same bus.
func InitializeEventSystem(cfg *config.Config) (*event.MemoryBus, *event.ResilientPublisher, error) {
	eventBus := event.NewMemoryBus()

	publisher, err := event.NewResilientPublisher(eventBus, cfg.EventMaxRetries, cfg.EventRetryDelay, cfg.DeadLetterPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateResilientPublisher, err)
	}

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", cfg.EventMaxRetries,
		"retry_delay", cfg.EventRetryDelay,
		"deadletter_path", cfg.DeadLetterPath)

	return eventBus, publisher, nil
}
