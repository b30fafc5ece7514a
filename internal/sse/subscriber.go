package sse

import (
	"context"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/event"
	"github.com/osse101/DCM_Go/internal/logger"
)

// Subscriber bridges the internal event bus to the SSE hub
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers handlers for the event types exposed on the live feed
func (s *Subscriber) Subscribe() {
	s.bus.Subscribe(event.PayoutComputed, s.handlePayoutComputed)
	s.bus.Subscribe(event.ScenarioSaved, s.handleScenarioSaved)

	logger.Info(LogMsgSubscribed,
		"types", []string{string(event.PayoutComputed), string(event.ScenarioSaved)})
}

func (s *Subscriber) handlePayoutComputed(ctx context.Context, evt event.Event) error {
	p, err := event.DecodePayload[domain.PayoutComputedPayloadV1](evt.Payload)
	if err != nil {
		// a bad payload is not worth a retry
		logger.FromContext(ctx).Warn(LogMsgInvalidPayload, "event_type", evt.Type, "error", err)
		return nil
	}

	source, _ := evt.GetMetadataValue(event.MetadataKeySource).(string)
	s.hub.Broadcast(EventTypePayoutComputed, PayoutComputedPayload{
		ScenarioID:       p.ScenarioID,
		WinningSide:      p.WinningSide,
		LeverageBound:    p.LeverageBound,
		ParticipantCount: p.ParticipantCount,
		WinnerCount:      p.WinnerCount,
		LosingPool:       p.LosingPool,
		TotalPayout:      p.TotalPayout,
		Unclaimed:        p.Unclaimed,
		Source:           source,
	})

	logger.FromContext(ctx).Debug(LogMsgEventBroadcast,
		"event_type", EventTypePayoutComputed,
		"participants", p.ParticipantCount)
	return nil
}

func (s *Subscriber) handleScenarioSaved(ctx context.Context, evt event.Event) error {
	p, err := event.DecodePayload[domain.ScenarioSavedPayloadV1](evt.Payload)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgInvalidPayload, "event_type", evt.Type, "error", err)
		return nil
	}

	s.hub.Broadcast(EventTypeScenarioSaved, ScenarioSavedPayload{
		ScenarioID:       p.ScenarioID,
		Name:             p.Name,
		ParticipantCount: p.ParticipantCount,
	})

	logger.FromContext(ctx).Debug(LogMsgEventBroadcast,
		"event_type", EventTypeScenarioSaved,
		"scenario_id", p.ScenarioID)
	return nil
}
