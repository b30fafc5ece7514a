package metrics

import (
	"context"

	"github.com/osse101/DCM_Go/internal/domain"
	"github.com/osse101/DCM_Go/internal/event"
	"github.com/osse101/DCM_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to every settlement event type
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.PayoutComputed,
		event.PayoutRejected,
		event.ScenarioSaved,
		event.ScenarioDeleted,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics. Undecodable payloads are
// counted as handler errors and otherwise ignored.
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	var err error
	switch evt.Type {
	case event.PayoutComputed:
		var p domain.PayoutComputedPayloadV1
		if p, err = event.DecodePayload[domain.PayoutComputedPayloadV1](evt.Payload); err == nil {
			source, _ := evt.GetMetadataValue(event.MetadataKeySource).(string)
			SettlementsComputed.WithLabelValues(string(p.WinningSide), source).Inc()
			ParticipantsPerSettlement.Observe(float64(p.ParticipantCount))
			LosingPool.Observe(p.LosingPool)
			if p.Unclaimed > 0 {
				UnclaimedPools.Inc()
			}
		}

	case event.PayoutRejected:
		var p domain.PayoutRejectedPayloadV1
		if p, err = event.DecodePayload[domain.PayoutRejectedPayloadV1](evt.Payload); err == nil {
			SettlementsRejected.WithLabelValues(p.Reason).Inc()
		}

	case event.ScenarioSaved:
		ScenariosSaved.Inc()

	case event.ScenarioDeleted:
		ScenariosDeleted.Inc()
	}

	if err != nil {
		EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
		log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
		return nil
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
