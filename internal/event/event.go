package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/DCM_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata map[string]interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	return e.Metadata[key]
}

// Event types published by the settlement service
const (
	PayoutComputed  Type = domain.EventTypePayoutComputed
	PayoutRejected  Type = domain.EventTypePayoutRejected
	ScenarioSaved   Type = domain.EventTypeScenarioSaved
	ScenarioDeleted Type = domain.EventTypeScenarioDeleted
)

// Metadata keys
const (
	MetadataKeyRequestID = "request_id"
	MetadataKeySource    = "source"
)

// Type-safe event constructors

// NewPayoutComputedEvent summarises a settlement without copying per-participant rows
func NewPayoutComputedEvent(scenarioID string, s *domain.Settlement, source string) Event {
	winners := 0
	for _, r := range s.Results {
		if r.IsWinner(s.WinningSide) {
			winners++
		}
	}

	return Event{
		Version: EventSchemaVersion,
		Type:    PayoutComputed,
		Payload: domain.PayoutComputedPayloadV1{
			ScenarioID:        scenarioID,
			WinningSide:       s.WinningSide,
			LeverageBound:     s.LeverageBound,
			Policy:            s.Policy,
			ParticipantCount:  len(s.Results),
			WinnerCount:       winners,
			LosingPool:        s.Pools.LosingPool,
			WinnerTotalWeight: s.Pools.WinnerTotalWeight,
			Unclaimed:         s.Pools.Unclaimed,
			TotalPayout:       s.TotalPayout(),
			Timestamp:         time.Now().Unix(),
		},
		Metadata: Metadata{MetadataKeySource: source},
	}
}

// NewPayoutRejectedEvent records why the engine refused an input
func NewPayoutRejectedEvent(reason string, participantCount int, source string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PayoutRejected,
		Payload: domain.PayoutRejectedPayloadV1{
			Reason:           reason,
			ParticipantCount: participantCount,
			Timestamp:        time.Now().Unix(),
		},
		Metadata: Metadata{MetadataKeySource: source},
	}
}

// NewScenarioSavedEvent creates a new scenario saved event
func NewScenarioSavedEvent(s *domain.Scenario) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ScenarioSaved,
		Payload: domain.ScenarioSavedPayloadV1{
			ScenarioID:       s.ID,
			Name:             s.Name,
			ParticipantCount: len(s.Participants),
			Timestamp:        time.Now().Unix(),
		},
	}
}

// NewScenarioDeletedEvent creates a new scenario deleted event
func NewScenarioDeletedEvent(id string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ScenarioDeleted,
		Payload: domain.ScenarioDeletedPayloadV1{
			ScenarioID: id,
			Timestamp:  time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish runs every subscriber synchronously and joins their errors
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errors.Join(errs...))
	}
	return nil
}

// Subscribe registers a handler for an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
