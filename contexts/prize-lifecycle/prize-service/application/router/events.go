package router

import (
	"encoding/json"
	"time"

	"prizeforge/contexts/prize-lifecycle/prize-service/ports"
)

const SourceService = "prize-service"

// NewEnvelope wraps one prize event for the outbox.
func NewEnvelope(
	eventID string,
	eventType string,
	prizeID string,
	actor string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	if data == nil {
		data = map[string]any{}
	}
	data["prize_id"] = prizeID
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    SourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "prize_id",
		PartitionKey:     prizeID,
		Actor:            actor,
		Data:             payload,
	}, nil
}
